package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/ospiem/quizbee/internal/dto"
	"github.com/ospiem/quizbee/internal/model"
	"github.com/ospiem/quizbee/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// QuestionController manages the question bank.
type QuestionController struct {
	questions repository.QuestionRepository
}

func NewQuestionController(questions repository.QuestionRepository) *QuestionController {
	return &QuestionController{questions: questions}
}

// questionFromRequest builds the model from a validated create request,
// enforcing the rules gin's binding tags cannot express.
func questionFromRequest(req *dto.QuestionCreateDTO) (*model.Question, error) {
	if req.Kind == model.KindTest && len(req.Options) == 0 {
		return nil, errors.New("test questions require an options list")
	}

	question := &model.Question{
		Kind:       req.Kind,
		Text:       req.Text,
		Subject:    req.Subject,
		Answer:     req.Answer,
		Level:      req.Level,
		ArticleURL: req.ArticleURL,
	}
	if req.Kind == model.KindTest {
		if err := question.SetOptionList(req.Options); err != nil {
			return nil, err
		}
	}
	for _, groupID := range req.Groups {
		question.Groups = append(question.Groups, model.QuestionGroupAssociation{GroupID: groupID})
	}
	return question, nil
}

// CreateQuestion godoc
// Adds a question with its group associations to the bank.
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	var req dto.QuestionCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid question payload", Details: []string{err.Error()}})
		return
	}

	question, err := questionFromRequest(&req)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		return
	}

	if err := c.questions.Create(question); err != nil {
		log.Error().Err(err).Msg("CreateQuestion: failed to persist question")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to create question"})
		return
	}
	ctx.JSON(http.StatusCreated, toQuestionResponse(question))
}

// ImportQuestions godoc
// Bulk-creates questions from a JSON array. The whole batch is validated
// before anything is persisted.
func (c *QuestionController) ImportQuestions(ctx *gin.Context) {
	var reqs []dto.QuestionCreateDTO
	if err := ctx.ShouldBindJSON(&reqs); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid import payload", Details: []string{err.Error()}})
		return
	}
	if len(reqs) == 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Import payload is empty"})
		return
	}

	questions := make([]*model.Question, 0, len(reqs))
	var details []string
	for i := range reqs {
		question, err := questionFromRequest(&reqs[i])
		if err != nil {
			details = append(details, fmt.Sprintf("question %d: %s", i, err))
			continue
		}
		questions = append(questions, question)
	}
	if len(details) > 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid questions in import payload", Details: details})
		return
	}

	responses := make([]dto.QuestionResponseDTO, 0, len(questions))
	for _, question := range questions {
		if err := c.questions.Create(question); err != nil {
			log.Error().Err(err).Msg("ImportQuestions: failed to persist question")
			ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to import questions"})
			return
		}
		responses = append(responses, toQuestionResponse(question))
	}
	ctx.JSON(http.StatusCreated, responses)
}

// GetAllQuestions lists the whole bank.
func (c *QuestionController) GetAllQuestions(ctx *gin.Context) {
	questions, err := c.questions.FindAll()
	if err != nil {
		log.Error().Err(err).Msg("GetAllQuestions: repository error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to list questions"})
		return
	}

	responses := make([]dto.QuestionResponseDTO, 0, len(questions))
	for i := range questions {
		responses = append(responses, toQuestionResponse(&questions[i]))
	}
	ctx.JSON(http.StatusOK, responses)
}

func (c *QuestionController) GetQuestion(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid question ID"})
		return
	}

	question, err := c.questions.FindByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Question not found"})
			return
		}
		log.Error().Err(err).Uint64("questionID", id).Msg("GetQuestion: repository error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to fetch question"})
		return
	}
	ctx.JSON(http.StatusOK, toQuestionResponse(question))
}

// DeleteQuestion removes a question; its records and group links cascade.
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid question ID"})
		return
	}
	if err := c.questions.Delete(uint(id)); err != nil {
		log.Error().Err(err).Uint64("questionID", id).Msg("DeleteQuestion: repository error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to delete question"})
		return
	}
	ctx.Status(http.StatusNoContent)
}

func toQuestionResponse(question *model.Question) dto.QuestionResponseDTO {
	var resp dto.QuestionResponseDTO
	if err := copier.Copy(&resp, question); err != nil {
		log.Warn().Err(err).Uint("questionID", question.ID).Msg("Failed to copy question to DTO")
	}
	resp.Options, _ = question.OptionList()
	resp.Groups = make([]string, 0, len(question.Groups))
	for _, assoc := range question.Groups {
		resp.Groups = append(resp.Groups, assoc.GroupID)
	}
	return resp
}
