package dto

import (
	"fmt"
	"strconv"
	"time"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
	"github.com/yourusername/quiz-api/internal/service"
)

// SubmitRequest - ответы пользователя. Ключи answers - id вопросов строкой, как их отдает JSON.
type SubmitRequest struct {
	Answers   map[string]*int `json:"answers"`
	TimeTaken *int            `json:"time_taken"`
}

// ToInput переводит запрос в вход сервиса; нечисловой ключ или null вместо варианта - ошибка валидации.
// Вопрос без ответа просто не передается.
func (r SubmitRequest) ToInput() (service.SubmitInput, error) {
	answers := make(map[uint]int, len(r.Answers))
	for key, option := range r.Answers {
		id, err := strconv.ParseUint(key, 10, 32)
		if err != nil || id == 0 {
			return service.SubmitInput{}, apperrors.NewValidationError("answers", fmt.Sprintf("invalid question id %q", key))
		}
		if option == nil {
			return service.SubmitInput{}, apperrors.NewValidationError("answers", fmt.Sprintf("answer for question %s must be an integer", key))
		}
		answers[uint(id)] = *option
	}
	return service.SubmitInput{Answers: answers, TimeTaken: r.TimeTaken}, nil
}

// QuestionResponse - вопрос с правильным ответом, только для администратора
type QuestionResponse struct {
	ID            uint      `json:"id"`
	QuestionText  string    `json:"question_text"`
	Options       []string  `json:"options"`
	CorrectOption int       `json:"correct_option"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewQuestionResponse создает DTO для вопроса
func NewQuestionResponse(q *entity.Question) QuestionResponse {
	options := []string(q.Options)
	if options == nil {
		options = []string{}
	}
	return QuestionResponse{
		ID:            q.ID,
		QuestionText:  q.Text,
		Options:       options,
		CorrectOption: q.CorrectOption,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
	}
}

// NewQuestionListResponse преобразует слайс вопросов
func NewQuestionListResponse(questions []entity.Question) []QuestionResponse {
	out := make([]QuestionResponse, 0, len(questions))
	for i := range questions {
		out = append(out, NewQuestionResponse(&questions[i]))
	}
	return out
}

// AttemptResponse - попытка с расшифрованными ответами
type AttemptResponse struct {
	ID             string       `json:"id"`
	UserID         *string      `json:"user_id"`
	Score          int          `json:"score"`
	TotalQuestions int          `json:"total_questions"`
	Percentage     float64      `json:"percentage"`
	TimeTaken      *int         `json:"time_taken"`
	Answers        map[uint]int `json:"answers"`
	CompletedAt    time.Time    `json:"completed_at"`
}

// NewAttemptResponse создает DTO попытки. Битые ответы отдаются пустыми.
func NewAttemptResponse(a *entity.Attempt) AttemptResponse {
	answers, err := a.DecodeAnswers()
	if err != nil {
		answers = map[uint]int{}
	}
	return AttemptResponse{
		ID:             a.ID,
		UserID:         a.AccountID,
		Score:          a.Score,
		TotalQuestions: a.TotalQuestions,
		Percentage:     a.Percentage,
		TimeTaken:      a.TimeTaken,
		Answers:        answers,
		CompletedAt:    a.CompletedAt,
	}
}

// NewAttemptListResponse преобразует слайс попыток
func NewAttemptListResponse(attempts []entity.Attempt) []AttemptResponse {
	out := make([]AttemptResponse, 0, len(attempts))
	for i := range attempts {
		out = append(out, NewAttemptResponse(&attempts[i]))
	}
	return out
}

// ImportSkipped - пропущенный при импорте вопрос (номер в файле и причина)
type ImportSkipped struct {
	Position int    `json:"position"`
	Reason   string `json:"reason"`
}

// ImportResponse - итог загрузки файла с вопросами
type ImportResponse struct {
	Message  string          `json:"message"`
	Imported int             `json:"imported"`
	Skipped  []ImportSkipped `json:"skipped"`
}

// PaginatedResponse - страница списка
type PaginatedResponse struct {
	Items  interface{} `json:"items"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}
