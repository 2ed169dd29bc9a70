package entity

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Attempt - одна завершенная и оцененная попытка прохождения викторины.
// Записи только добавляются, AccountID == nil означает анонимную попытку.
type Attempt struct {
	ID             string         `gorm:"primaryKey;size:36" json:"id"`
	AccountID      *string        `gorm:"column:user_id;size:36;index" json:"user_id"`
	Score          int            `gorm:"not null" json:"score"`
	TotalQuestions int            `gorm:"not null" json:"total_questions"`
	Percentage     float64        `gorm:"not null" json:"percentage"`
	TimeTaken      *int           `json:"time_taken"`
	Answers        datatypes.JSON `gorm:"not null" json:"answers"`
	CompletedAt    time.Time      `gorm:"not null;index" json:"completed_at"`
}

// TableName определяет имя таблицы для Attempt
func (Attempt) TableName() string {
	return "quiz_attempts"
}

// BeforeCreate выдает идентификатор и время завершения, если они не заданы
func (a *Attempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CompletedAt.IsZero() {
		a.CompletedAt = time.Now().UTC()
	}
	return nil
}

// IsAnonymous сообщает, что попытка не привязана к аккаунту
func (a *Attempt) IsAnonymous() bool {
	return a.AccountID == nil
}

// EncodeAnswers сериализует карту ответов в JSON (ключи - id вопросов)
func EncodeAnswers(answers map[uint]int) (datatypes.JSON, error) {
	out := make(map[string]int, len(answers))
	for id, option := range answers {
		out[strconv.FormatUint(uint64(id), 10)] = option
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// DecodeAnswers восстанавливает карту ответов попытки
func (a *Attempt) DecodeAnswers() (map[uint]int, error) {
	raw := make(map[string]int)
	if len(a.Answers) > 0 {
		if err := json.Unmarshal(a.Answers, &raw); err != nil {
			return nil, err
		}
	}

	answers := make(map[uint]int, len(raw))
	for key, option := range raw {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return nil, err
		}
		answers[uint(id)] = option
	}
	return answers, nil
}
