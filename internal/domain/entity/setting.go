package entity

import "time"

// Ключи настроек викторины
const (
	SettingQuizTimeLimit       = "quiz_time_limit"
	SettingMaxQuestionsPerQuiz = "max_questions_per_quiz"
	SettingAllowAnonymousQuiz  = "allow_anonymous_quiz"
)

// DefaultSettings - значения, которые записываются при первом запуске
var DefaultSettings = map[string]string{
	SettingQuizTimeLimit:       "300",
	SettingMaxQuestionsPerQuiz: "10",
	SettingAllowAnonymousQuiz:  "true",
}

// Setting - запись key-value хранилища настроек администратора
type Setting struct {
	Key       string    `gorm:"column:setting_key;primaryKey;size:100" json:"key"`
	Value     string    `gorm:"column:setting_value;size:1000;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для Setting
func (Setting) TableName() string {
	return "admin_settings"
}
