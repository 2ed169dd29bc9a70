package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	"github.com/yourusername/quiz-api/internal/domain/repository"
	"github.com/yourusername/quiz-api/internal/metrics"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
	"github.com/yourusername/quiz-api/internal/pkg/patch"
)

// QuestionInput - новый вопрос
type QuestionInput struct {
	QuestionText  string   `json:"question_text" validate:"required,min=5,max=1000"`
	Options       []string `json:"options" validate:"required,min=2,max=6,dive,required,max=200"`
	CorrectOption int      `json:"correct_option" validate:"gte=0"`
}

// QuestionPatch - частичное обновление вопроса
type QuestionPatch struct {
	QuestionText  patch.Optional[string]   `json:"question_text"`
	Options       patch.Optional[[]string] `json:"options"`
	CorrectOption patch.Optional[int]      `json:"correct_option"`
}

// ImportIssue описывает пропущенный при импорте вопрос
type ImportIssue struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ImportResult - итог массового импорта
type ImportResult struct {
	Imported int           `json:"imported"`
	Skipped  []ImportIssue `json:"skipped"`
}

// QuestionService - административное управление вопросами
type QuestionService struct {
	questions repository.QuestionRepository
	cache     repository.CacheRepository
}

// NewQuestionService создает QuestionService; cache может быть nil
func NewQuestionService(questions repository.QuestionRepository, cache repository.CacheRepository) *QuestionService {
	return &QuestionService{questions: questions, cache: cache}
}

// ValidateQuestion проверяет текст, варианты и индекс правильного ответа
func ValidateQuestion(input QuestionInput) error {
	if err := validateStruct(input); err != nil {
		return err
	}
	if input.CorrectOption >= len(input.Options) {
		return apperrors.NewValidationError("correct_option", "must be a valid option index")
	}
	return nil
}

func normalizeQuestion(input QuestionInput) QuestionInput {
	input.QuestionText = strings.TrimSpace(input.QuestionText)
	options := make([]string, len(input.Options))
	for i, opt := range input.Options {
		options[i] = strings.TrimSpace(opt)
	}
	input.Options = options
	return input
}

// List возвращает страницу вопросов вместе с ответами
func (s *QuestionService) List(ctx context.Context, limit, offset int) ([]entity.Question, int64, error) {
	return s.questions.List(ctx, limit, offset)
}

// Get возвращает вопрос по id
func (s *QuestionService) Get(ctx context.Context, id uint) (*entity.Question, error) {
	return s.questions.GetByID(ctx, id)
}

// Create создает вопрос
func (s *QuestionService) Create(ctx context.Context, input QuestionInput) (*entity.Question, error) {
	input = normalizeQuestion(input)
	if err := ValidateQuestion(input); err != nil {
		return nil, err
	}

	question := &entity.Question{
		Text:          input.QuestionText,
		Options:       entity.StringArray(input.Options),
		CorrectOption: input.CorrectOption,
	}
	if err := s.questions.Create(ctx, question); err != nil {
		return nil, err
	}
	invalidateQuestionCache(ctx, s.cache)
	log.Printf("[QuestionService] Created question %d", question.ID)
	return question, nil
}

// Update применяет частичное обновление; итоговый вопрос проверяется целиком
func (s *QuestionService) Update(ctx context.Context, id uint, p QuestionPatch) (*entity.Question, error) {
	if !p.QuestionText.Set && !p.Options.Set && !p.CorrectOption.Set {
		return nil, apperrors.NewValidationError("body", "no valid fields to update")
	}

	verr := &apperrors.ValidationError{}
	if p.QuestionText.Null {
		verr.Add("question_text", "must not be null")
	}
	if p.Options.Null {
		verr.Add("options", "must not be null")
	}
	if p.CorrectOption.Null {
		verr.Add("correct_option", "must not be null")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := QuestionInput{
		QuestionText:  question.Text,
		Options:       question.Options,
		CorrectOption: question.CorrectOption,
	}
	if p.QuestionText.Set {
		merged.QuestionText = p.QuestionText.Value
	}
	if p.Options.Set {
		merged.Options = p.Options.Value
	}
	if p.CorrectOption.Set {
		merged.CorrectOption = p.CorrectOption.Value
	}

	merged = normalizeQuestion(merged)
	if err := ValidateQuestion(merged); err != nil {
		return nil, err
	}

	question.Text = merged.QuestionText
	question.Options = entity.StringArray(merged.Options)
	question.CorrectOption = merged.CorrectOption
	if err := s.questions.Update(ctx, question); err != nil {
		return nil, err
	}
	invalidateQuestionCache(ctx, s.cache)
	return question, nil
}

// Delete удаляет вопрос
func (s *QuestionService) Delete(ctx context.Context, id uint) error {
	if err := s.questions.Delete(ctx, id); err != nil {
		return err
	}
	invalidateQuestionCache(ctx, s.cache)
	log.Printf("[QuestionService] Deleted question %d", id)
	return nil
}

// DeleteAll очищает банк вопросов
func (s *QuestionService) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.questions.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	invalidateQuestionCache(ctx, s.cache)
	log.Printf("[QuestionService] Deleted all questions (%d)", n)
	return n, nil
}

// Import проверяет каждый вопрос и сохраняет валидные одной транзакцией.
// Невалидные попадают в отчет; если валидных нет, возвращается ошибка валидации.
func (s *QuestionService) Import(ctx context.Context, source string, inputs []QuestionInput) (*ImportResult, error) {
	result := &ImportResult{Skipped: []ImportIssue{}}
	valid := make([]entity.Question, 0, len(inputs))

	for i, input := range inputs {
		input = normalizeQuestion(input)
		if err := ValidateQuestion(input); err != nil {
			result.Skipped = append(result.Skipped, ImportIssue{Index: i, Reason: err.Error()})
			continue
		}
		valid = append(valid, entity.Question{
			Text:          input.QuestionText,
			Options:       entity.StringArray(input.Options),
			CorrectOption: input.CorrectOption,
		})
	}

	if len(valid) == 0 {
		return nil, apperrors.NewValidationError("file", fmt.Sprintf("no valid questions found (%d skipped)", len(result.Skipped)))
	}

	if err := s.questions.CreateBatch(ctx, valid); err != nil {
		return nil, err
	}
	invalidateQuestionCache(ctx, s.cache)
	metrics.QuestionsImported.WithLabelValues(source).Add(float64(len(valid)))

	result.Imported = len(valid)
	log.Printf("[QuestionService] Imported %d questions from %s, skipped %d", result.Imported, source, len(result.Skipped))
	return result, nil
}
