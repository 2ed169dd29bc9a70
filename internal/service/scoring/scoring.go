// Package scoring оценивает ответы на викторину. Чистые функции без I/O,
// безопасны для конкурентного вызова.
package scoring

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/yourusername/quiz-api/internal/domain/entity"
)

// QuestionResult - результат по одному вопросу
type QuestionResult struct {
	ID            uint     `json:"id"`
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
	UserAnswer    *int     `json:"user_answer"`
	IsCorrect     bool     `json:"is_correct"`
}

// Result - итог оценки попытки
type Result struct {
	Score          int              `json:"score"`
	TotalQuestions int              `json:"total_questions"`
	Percentage     float64          `json:"percentage"`
	Results        []QuestionResult `json:"results"`
}

// Score оценивает ответы submitted (id вопроса -> индекс варианта).
// Вопросы обрабатываются по возрастанию id независимо от порядка во входном срезе.
// Ответы на неизвестные вопросы игнорируются, индекс вне диапазона считается неверным.
func Score(questions []entity.Question, submitted map[uint]int) Result {
	ordered := make([]entity.Question, len(questions))
	copy(ordered, questions)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	result := Result{
		TotalQuestions: len(ordered),
		Results:        make([]QuestionResult, 0, len(ordered)),
	}

	for i := range ordered {
		q := &ordered[i]
		item := QuestionResult{
			ID:            q.ID,
			QuestionText:  q.Text,
			Options:       append([]string(nil), q.Options...),
			CorrectOption: q.CorrectOption,
		}

		if selected, ok := submitted[q.ID]; ok {
			answer := selected
			item.UserAnswer = &answer
			item.IsCorrect = q.IsCorrect(selected)
		}
		if item.IsCorrect {
			result.Score++
		}
		result.Results = append(result.Results, item)
	}

	result.Percentage = Percentage(result.Score, result.TotalQuestions)
	return result
}

// Percentage = score/total*100 с округлением до 2 знаков (half away from zero).
// При total == 0 возвращает 0.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(score)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 2)
	value, _ := pct.Float64()
	return value
}

// Round2 округляет произвольное значение до 2 знаков по тому же правилу
func Round2(value float64) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(2).Float64()
	return rounded
}
