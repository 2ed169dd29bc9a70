package handler

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-api/internal/handler/dto"
	"github.com/yourusername/quiz-api/internal/handler/helper"
	"github.com/yourusername/quiz-api/internal/importer"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
	"github.com/yourusername/quiz-api/internal/service"
)

// QuestionIDKey - ключ контекста для id вопроса из URL
const QuestionIDKey = "questionID"

// QuestionHandler - администрирование банка вопросов
type QuestionHandler struct {
	questionService *service.QuestionService
	maxUploadBytes  int64
}

// NewQuestionHandler создает обработчик; maxUploadBytes ограничивает загружаемые файлы
func NewQuestionHandler(questionService *service.QuestionService, maxUploadBytes int64) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		maxUploadBytes:  maxUploadBytes,
	}
}

// List возвращает вопросы с ответами постранично
// GET /api/admin/questions
func (h *QuestionHandler) List(c *gin.Context) {
	limit, offset := helper.Pagination(c)
	questions, total, err := h.questionService.List(c.Request.Context(), limit, offset)
	if err != nil {
		helper.RespondError(c, "QuestionHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.PaginatedResponse{
		Items:  dto.NewQuestionListResponse(questions),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Get возвращает один вопрос
// GET /api/admin/questions/:id
func (h *QuestionHandler) Get(c *gin.Context) {
	question, err := h.questionService.Get(c.Request.Context(), c.GetUint(QuestionIDKey))
	if err != nil {
		helper.RespondError(c, "QuestionHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuestionResponse(question))
}

// Create добавляет вопрос
// POST /api/admin/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	var req service.QuestionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.BadRequest(c, "Invalid request data")
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), req)
	if err != nil {
		helper.RespondError(c, "QuestionHandler", err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewQuestionResponse(question))
}

// Update частично обновляет вопрос
// PUT /api/admin/questions/:id
func (h *QuestionHandler) Update(c *gin.Context) {
	var req service.QuestionPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.BadRequest(c, "Invalid request data")
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), c.GetUint(QuestionIDKey), req)
	if err != nil {
		helper.RespondError(c, "QuestionHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuestionResponse(question))
}

// Delete удаляет вопрос
// DELETE /api/admin/questions/:id
func (h *QuestionHandler) Delete(c *gin.Context) {
	if err := h.questionService.Delete(c.Request.Context(), c.GetUint(QuestionIDKey)); err != nil {
		helper.RespondError(c, "QuestionHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}

// UploadPDF импортирует вопросы из PDF
// POST /api/admin/questions/upload-pdf (multipart, поле file)
func (h *QuestionHandler) UploadPDF(c *gin.Context) {
	h.upload(c, "pdf", ".pdf", importer.ParsePDF)
}

// UploadXLSX импортирует вопросы из Excel
// POST /api/admin/questions/upload-xlsx (multipart, поле file)
func (h *QuestionHandler) UploadXLSX(c *gin.Context) {
	h.upload(c, "xlsx", ".xlsx", importer.ParseXLSX)
}

type parseFunc func(data []byte) ([]importer.Question, []importer.Issue, error)

func (h *QuestionHandler) upload(c *gin.Context, source, extension string, parse parseFunc) {
	data, err := h.readUpload(c, extension)
	if err != nil {
		helper.RespondError(c, "QuestionHandler", err)
		return
	}

	parsed, issues, err := parse(data)
	if err != nil {
		if errors.Is(err, importer.ErrNoQuestions) {
			helper.RespondError(c, "QuestionHandler", apperrors.NewValidationError("file", err.Error()))
			return
		}
		log.Printf("[QuestionHandler] Failed to parse %s upload: %v", source, err)
		helper.RespondError(c, "QuestionHandler", apperrors.NewValidationError("file", "could not read "+source+" file"))
		return
	}

	skipped := make([]dto.ImportSkipped, 0, len(issues))
	for _, issue := range issues {
		skipped = append(skipped, dto.ImportSkipped{Position: issue.Position, Reason: issue.Reason})
	}
	if len(parsed) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":      "no valid questions found in file",
			"error_type": "validation_error",
			"skipped":    skipped,
		})
		return
	}

	inputs := make([]service.QuestionInput, 0, len(parsed))
	for _, q := range parsed {
		inputs = append(inputs, service.QuestionInput{
			QuestionText:  q.Text,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
		})
	}

	result, err := h.questionService.Import(c.Request.Context(), source, inputs)
	if err != nil {
		helper.RespondError(c, "QuestionHandler", err)
		return
	}
	for _, issue := range result.Skipped {
		skipped = append(skipped, dto.ImportSkipped{Position: parsed[issue.Index].Position, Reason: issue.Reason})
	}

	c.JSON(http.StatusCreated, dto.ImportResponse{
		Message:  fmt.Sprintf("Imported %d questions", result.Imported),
		Imported: result.Imported,
		Skipped:  skipped,
	})
}

// readUpload читает файл из поля file с ограничением размера
func (h *QuestionHandler) readUpload(c *gin.Context, extension string) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, apperrors.NewValidationError("file", "file is required")
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), extension) {
		return nil, apperrors.NewValidationError("file", "file must have "+extension+" extension")
	}
	if fileHeader.Size > h.maxUploadBytes {
		return nil, apperrors.NewValidationError("file", fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, apperrors.NewValidationError("file", fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes))
	}
	return data, nil
}
