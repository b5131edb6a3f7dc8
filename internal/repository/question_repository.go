package repository

import (
	"github.com/ospiem/quizbee/internal/model"
	"gorm.io/gorm"
)

type QuestionRepository interface {
	Create(question *model.Question) error
	FindByID(id uint) (*model.Question, error)
	FindAll() ([]model.Question, error)
	Update(question *model.Question) error
	Delete(id uint) error

	// FindEligible returns questions linked to any of the given groups,
	// excluding the listed question IDs (the ones already planned).
	FindEligible(groupIDs []string, excludeQuestionIDs []uint) ([]model.Question, error)
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(question *model.Question) error {
	// Creates the group associations along with the question.
	return r.db.Create(question).Error
}

func (r *questionRepository) FindByID(id uint) (*model.Question, error) {
	var question model.Question
	if err := r.db.Preload("Groups").First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepository) FindAll() ([]model.Question, error) {
	var questions []model.Question
	if err := r.db.Preload("Groups").Order("created_at desc").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepository) Update(question *model.Question) error {
	return r.db.Save(question).Error
}

func (r *questionRepository) Delete(id uint) error {
	// Select(clause.Associations) is not needed: the schema cascades
	// group links and records on question deletion.
	return r.db.Unscoped().Delete(&model.Question{}, id).Error
}

func (r *questionRepository) FindEligible(groupIDs []string, excludeQuestionIDs []uint) ([]model.Question, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}

	var questions []model.Question
	query := r.db.Preload("Groups").
		Joins("JOIN question_to_group ON question_to_group.question_id = questions.id").
		Where("question_to_group.group_id IN ?", groupIDs)
	if len(excludeQuestionIDs) > 0 {
		query = query.Where("questions.id NOT IN ?", excludeQuestionIDs)
	}
	if err := query.Group("questions.id").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}
