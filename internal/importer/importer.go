// Package importer разбирает файлы с вопросами (PDF и XLSX) в промежуточный
// формат. Проверка вопросов выполняется сервисом при сохранении.
package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxOptions - сколько вариантов (A-F) распознается в одном вопросе
const MaxOptions = 6

// ErrNoQuestions возвращается, если в файле не найдено ни одного блока вопроса
var ErrNoQuestions = errors.New("no questions found in file")

// Question - распознанный вопрос. Position - номер вопроса в PDF или строки в XLSX.
type Question struct {
	Position      int
	Text          string
	Options       []string
	CorrectOption int
}

// Issue - блок, который не удалось разобрать
type Issue struct {
	Position int    `json:"position"`
	Reason   string `json:"reason"`
}

var (
	questionMarker = regexp.MustCompile(`Q(\d+)\.`)
	answerMarker   = regexp.MustCompile(`(?i)answer\s*:\s*([A-F])\b`)
	// вариант в начале строки: "A) ..."
	lineOptionMarker = regexp.MustCompile(`(?m)^[ \t]*([A-F])\)`)
)

// ParseText разбирает текст формата:
//
//	Q1. Текст вопроса?
//	A) Вариант
//	B) Вариант
//	Answer: A
//
// Переводы строк не обязательны: извлеченный из PDF текст часто склеен.
func ParseText(text string) ([]Question, []Issue) {
	var (
		questions []Question
		issues    []Issue
	)

	markers := questionMarker.FindAllStringSubmatchIndex(text, -1)
	for i, m := range markers {
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		position, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			position = i + 1
		}

		q, reason := parseBlock(text[m[1]:end])
		if reason != "" {
			issues = append(issues, Issue{Position: position, Reason: reason})
			continue
		}
		q.Position = position
		questions = append(questions, q)
	}
	return questions, issues
}

func parseBlock(block string) (Question, string) {
	answer := answerMarker.FindStringSubmatchIndex(block)
	if answer == nil {
		return Question{}, "missing \"Answer:\" line"
	}
	letter := strings.ToUpper(block[answer[2]:answer[3]])
	body := block[:answer[0]]

	starts, ends := lineOptionMarkers(body)
	if len(starts) < 2 {
		starts, ends = inlineOptionMarkers(body)
	}
	if len(starts) == 0 {
		return Question{}, "no options found"
	}

	q := Question{Text: collapseSpaces(body[:starts[0]])}
	for n := range starts {
		stop := len(body)
		if n+1 < len(starts) {
			stop = starts[n+1]
		}
		q.Options = append(q.Options, collapseSpaces(body[ends[n]:stop]))
	}

	q.CorrectOption = int(letter[0] - 'A')
	if q.CorrectOption >= len(q.Options) {
		return Question{}, fmt.Sprintf("answer %s does not match any option", letter)
	}
	return q, ""
}

// lineOptionMarkers ищет маркеры A), B)... только в начале строк,
// чтобы "f(A)" внутри текста вопроса не считался вариантом
func lineOptionMarkers(body string) (starts, ends []int) {
	for _, m := range lineOptionMarker.FindAllStringSubmatchIndex(body, -1) {
		if len(starts) == MaxOptions {
			break
		}
		if body[m[2]] != byte('A'+len(starts)) {
			if len(starts) == 0 {
				continue
			}
			break
		}
		starts = append(starts, m[2])
		ends = append(ends, m[1])
	}
	return starts, ends
}

// inlineOptionMarkers - для склеенного текста без переводов строк.
// Варианты ищутся строго по порядку A), B), C)...
func inlineOptionMarkers(body string) (starts, ends []int) {
	from := 0
	for n := 0; n < MaxOptions; n++ {
		marker := string(rune('A'+n)) + ")"
		idx := strings.Index(body[from:], marker)
		if idx < 0 {
			break
		}
		starts = append(starts, from+idx)
		ends = append(ends, from+idx+len(marker))
		from = from + idx + len(marker)
	}
	return starts, ends
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
