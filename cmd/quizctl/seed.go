package main

import (
	"context"
	"fmt"

	"github.com/yourusername/quiz-api/internal/service"
)

var sampleQuestions = []service.QuestionInput{
	{QuestionText: "What is the capital of France?", Options: []string{"London", "Berlin", "Paris", "Madrid"}, CorrectOption: 2},
	{QuestionText: "Which planet is known as the Red Planet?", Options: []string{"Venus", "Mars", "Jupiter", "Saturn"}, CorrectOption: 1},
	{QuestionText: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, CorrectOption: 1},
	{QuestionText: "Who painted the Mona Lisa?", Options: []string{"Vincent van Gogh", "Pablo Picasso", "Leonardo da Vinci", "Michelangelo"}, CorrectOption: 2},
	{QuestionText: "What is the largest ocean on Earth?", Options: []string{"Atlantic Ocean", "Indian Ocean", "Arctic Ocean", "Pacific Ocean"}, CorrectOption: 3},
	{QuestionText: "Which programming language is known for its use in web development?", Options: []string{"C++", "JavaScript", "Assembly", "COBOL"}, CorrectOption: 1},
	{QuestionText: "What year did World War II end?", Options: []string{"1943", "1944", "1945", "1946"}, CorrectOption: 2},
	{QuestionText: "Which element has the chemical symbol 'O'?", Options: []string{"Gold", "Oxygen", "Silver", "Iron"}, CorrectOption: 1},
}

// seedQuestions заполняет банк только если он пуст
func seedQuestions(ctx context.Context, questions *service.QuestionService) error {
	_, total, err := questions.List(ctx, 1, 0)
	if err != nil {
		return err
	}
	if total > 0 {
		fmt.Printf("Question bank already has %d questions, skipping seed\n", total)
		return nil
	}

	result, err := questions.Import(ctx, "seed", sampleQuestions)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d questions\n", result.Imported)
	return nil
}
