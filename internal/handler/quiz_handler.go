package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-api/internal/handler/dto"
	"github.com/yourusername/quiz-api/internal/handler/helper"
	"github.com/yourusername/quiz-api/internal/middleware"
	"github.com/yourusername/quiz-api/internal/service"
)

// QuizHandler обрабатывает прохождение викторины
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler создает новый обработчик викторины
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// GetQuestions возвращает вопросы без правильных ответов
// GET /api/questions?limit=
func (h *QuizHandler) GetQuestions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			helper.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}

	questions, err := h.quizService.ListQuestions(c.Request.Context(), limit)
	if err != nil {
		helper.RespondError(c, "QuizHandler", err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// GetConfig возвращает публичные параметры викторины
// GET /api/quiz/config
func (h *QuizHandler) GetConfig(c *gin.Context) {
	cfg, err := h.quizService.Config(c.Request.Context())
	if err != nil {
		helper.RespondError(c, "QuizHandler", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// Submit оценивает ответы. Личность берется из контекста: аноним для /submit
// без токена, аккаунт для /submit-authenticated.
// POST /api/submit, POST /api/submit-authenticated
func (h *QuizHandler) Submit(c *gin.Context) {
	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.BadRequest(c, "Invalid request data")
		return
	}

	input, err := req.ToInput()
	if err != nil {
		helper.RespondError(c, "QuizHandler", err)
		return
	}

	result, err := h.quizService.Submit(c.Request.Context(), middleware.GetIdentity(c), input)
	if err != nil {
		helper.RespondError(c, "QuizHandler", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// History возвращает последние попытки текущего пользователя
// GET /api/quiz-history
func (h *QuizHandler) History(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	attempts, err := h.quizService.History(c.Request.Context(), identity.Account.ID)
	if err != nil {
		helper.RespondError(c, "QuizHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAttemptListResponse(attempts))
}
