package importer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// ExtractPDFText возвращает текст всех страниц документа
func ExtractPDFText(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return buf.String(), nil
}

// ParsePDF извлекает текст и разбирает вопросы
func ParsePDF(data []byte) ([]Question, []Issue, error) {
	text, err := ExtractPDFText(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, err
	}
	questions, issues := ParseText(text)
	if len(questions) == 0 && len(issues) == 0 {
		return nil, nil, ErrNoQuestions
	}
	return questions, issues, nil
}
