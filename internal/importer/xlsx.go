package importer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX читает первый лист книги. Колонки: вопрос, варианты (2-6), ответ в последней
// заполненной колонке - буквой A-F или номером с 1. Строка заголовка пропускается.
func ParseXLSX(data []byte) ([]Question, []Issue, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrNoQuestions
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	var (
		questions []Question
		issues    []Issue
	)
	for i, row := range rows {
		position := i + 1
		cells := trimRow(row)
		if len(cells) == 0 {
			continue
		}
		if i == 0 && isHeaderRow(cells) {
			continue
		}

		q, reason := parseRow(cells)
		if reason != "" {
			issues = append(issues, Issue{Position: position, Reason: reason})
			continue
		}
		q.Position = position
		questions = append(questions, q)
	}

	if len(questions) == 0 && len(issues) == 0 {
		return nil, nil, ErrNoQuestions
	}
	return questions, issues, nil
}

func trimRow(row []string) []string {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.TrimSpace(c)
	}
	last := len(cells)
	for last > 0 && cells[last-1] == "" {
		last--
	}
	return cells[:last]
}

func isHeaderRow(cells []string) bool {
	switch strings.ToLower(cells[0]) {
	case "question", "question_text", "question text", "вопрос":
		return true
	}
	return false
}

func parseRow(cells []string) (Question, string) {
	if len(cells) < 4 {
		return Question{}, "expected question, at least two options and an answer"
	}
	columns := cells[1 : len(cells)-1]
	if len(columns) > MaxOptions {
		return Question{}, fmt.Sprintf("at most %d options are supported", MaxOptions)
	}

	answer, ok := parseAnswer(cells[len(cells)-1], len(columns))
	if !ok || columns[answer] == "" {
		return Question{}, fmt.Sprintf("invalid answer %q", cells[len(cells)-1])
	}

	// пустые колонки вариантов пропускаются, индекс ответа пересчитывается
	options := make([]string, 0, len(columns))
	correct := 0
	for i, option := range columns {
		if option == "" {
			continue
		}
		if i == answer {
			correct = len(options)
		}
		options = append(options, option)
	}
	if len(options) < 2 {
		return Question{}, "expected at least two non-empty options"
	}

	return Question{
		Text:          cells[0],
		Options:       options,
		CorrectOption: correct,
	}, ""
}

// parseAnswer принимает букву (A-F) или номер варианта с 1
func parseAnswer(raw string, optionCount int) (int, bool) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if len(raw) == 1 && raw[0] >= 'A' && raw[0] <= 'F' {
		idx := int(raw[0] - 'A')
		return idx, idx < optionCount
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > optionCount {
		return 0, false
	}
	return n - 1, true
}
