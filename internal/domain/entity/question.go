package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray представляет массив строк, хранимый в JSON-колонке
type StringArray []string

// Scan реализует интерфейс sql.Scanner
func (o *StringArray) Scan(value interface{}) error {
	if value == nil {
		*o = StringArray{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		// SQLite отдает JSON-колонку строкой
		raw = []byte(v)
	default:
		return errors.New("failed to unmarshal JSON array: unsupported source type")
	}

	if len(raw) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(raw, o)
}

// Value реализует интерфейс driver.Valuer
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Question - вопрос с вариантами ответов. Правильный ответ никогда
// не отдается в публичных ответах API.
type Question struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	Text          string      `gorm:"column:question_text;size:1000;not null" json:"question_text"`
	Options       StringArray `gorm:"type:text;not null" json:"options"`
	CorrectOption int         `gorm:"not null" json:"-"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName определяет имя таблицы для Question
func (Question) TableName() string {
	return "questions"
}

// IsCorrect проверяет, является ли выбранный вариант правильным.
// Индекс вне диапазона просто не совпадает с правильным.
func (q *Question) IsCorrect(selectedOption int) bool {
	return selectedOption == q.CorrectOption
}

// OptionsCount возвращает количество вариантов ответа
func (q *Question) OptionsCount() int {
	return len(q.Options)
}

// IsValidOption проверяет, существует ли вариант с таким индексом
func (q *Question) IsValidOption(selectedOption int) bool {
	return selectedOption >= 0 && selectedOption < len(q.Options)
}
