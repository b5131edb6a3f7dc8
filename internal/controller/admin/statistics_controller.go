package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/ospiem/quizbee/internal/dto"
	"github.com/ospiem/quizbee/internal/repository"
	"github.com/rs/zerolog/log"
)

// StatisticsController reports a person's answering history.
type StatisticsController struct {
	records repository.RecordRepository
}

func NewStatisticsController(records repository.RecordRepository) *StatisticsController {
	return &StatisticsController{records: records}
}

func (c *StatisticsController) GetPersonStatistics(ctx *gin.Context) {
	personID := ctx.Param("id")

	records, err := c.records.FindAllByPerson(personID)
	if err != nil {
		log.Error().Err(err).Str("personID", personID).Msg("GetPersonStatistics: repository error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to fetch statistics"})
		return
	}

	stats := dto.PersonStatisticsDTO{
		PersonID: personID,
		ByState:  make(map[string]int),
		Records:  make([]dto.RecordResponseDTO, 0, len(records)),
	}
	for i := range records {
		record := &records[i]

		var recordDTO dto.RecordResponseDTO
		if err := copier.Copy(&recordDTO, record); err != nil {
			log.Warn().Err(err).Uint("recordID", record.ID).Msg("Failed to copy record to DTO")
			continue
		}
		recordDTO.State = record.State.String()
		recordDTO.QuestionText = record.Question.Text

		stats.Records = append(stats.Records, recordDTO)
		stats.TotalPoints += record.Points
		stats.ByState[record.State.String()]++
	}
	ctx.JSON(http.StatusOK, stats)
}
