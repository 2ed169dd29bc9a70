package handler

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	"github.com/yourusername/quiz-api/internal/handler/dto"
	"github.com/yourusername/quiz-api/internal/handler/helper"
	"github.com/yourusername/quiz-api/internal/middleware"
	"github.com/yourusername/quiz-api/internal/service"
)

const (
	// AccountIDKey - ключ контекста для id аккаунта из URL
	AccountIDKey = "accountID"
	// SettingKeyKey - ключ контекста для имени настройки из URL
	SettingKeyKey = "settingKey"

	exportPageSize = 500
	exportMaxRows  = 100000
)

// AdminHandler - пользователи, статистика, попытки и настройки
type AdminHandler struct {
	accountService  *service.AccountService
	settingsService *service.SettingsService
}

// NewAdminHandler создает обработчик администратора
func NewAdminHandler(accountService *service.AccountService, settingsService *service.SettingsService) *AdminHandler {
	return &AdminHandler{
		accountService:  accountService,
		settingsService: settingsService,
	}
}

// ListUsers возвращает аккаунты постранично
// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, offset := helper.Pagination(c)
	accounts, total, err := h.accountService.List(c.Request.Context(), limit, offset)
	if err != nil {
		helper.RespondError(c, "AdminHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.PaginatedResponse{
		Items:  dto.NewAccountListResponse(accounts),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// GetUser возвращает аккаунт
// GET /api/admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	account, err := h.accountService.Get(c.Request.Context(), c.GetString(AccountIDKey))
	if err != nil {
		helper.RespondError(c, "AdminHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAccountResponse(account))
}

// UpdateUser частично обновляет аккаунт
// PUT /api/admin/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req service.AccountPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.BadRequest(c, "Invalid request data")
		return
	}

	actor := middleware.GetIdentity(c)
	account, err := h.accountService.Update(c.Request.Context(), actor.Account.ID, c.GetString(AccountIDKey), req)
	if err != nil {
		helper.RespondError(c, "AdminHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAccountResponse(account))
}

// DeleteUser удаляет аккаунт вместе с его попытками
// DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor := middleware.GetIdentity(c)
	if err := h.accountService.Delete(c.Request.Context(), actor.Account.ID, c.GetString(AccountIDKey)); err != nil {
		helper.RespondError(c, "AdminHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// Stats возвращает сводку
// GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.accountService.Stats(c.Request.Context())
	if err != nil {
		helper.RespondError(c, "AdminHandler", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListAttempts возвращает последние попытки постранично
// GET /api/admin/attempts
func (h *AdminHandler) ListAttempts(c *gin.Context) {
	limit, offset := helper.Pagination(c)
	attempts, total, err := h.accountService.ListAttempts(c.Request.Context(), limit, offset)
	if err != nil {
		helper.RespondError(c, "AdminHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.PaginatedResponse{
		Items:  dto.NewAttemptListResponse(attempts),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// ExportAttempts выгружает попытки в Excel
// GET /api/admin/attempts/export
func (h *AdminHandler) ExportAttempts(c *gin.Context) {
	var all []entity.Attempt
	for offset := 0; offset < exportMaxRows; offset += exportPageSize {
		page, total, err := h.accountService.ListAttempts(c.Request.Context(), exportPageSize, offset)
		if err != nil {
			helper.RespondError(c, "AdminHandler", err)
			return
		}
		all = append(all, page...)
		if len(page) < exportPageSize || int64(len(all)) >= total {
			break
		}
	}

	buf, err := buildAttemptsWorkbook(all)
	if err != nil {
		helper.RespondError(c, "AdminHandler", err)
		return
	}

	filename := fmt.Sprintf("quiz_attempts_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// buildAttemptsWorkbook пишет попытки в книгу через StreamWriter
func buildAttemptsWorkbook(attempts []entity.Attempt) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Attempts"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream writer: %w", err)
	}

	headers := []interface{}{"Attempt ID", "User ID", "Score", "Total questions", "Percentage", "Time taken (s)", "Completed at"}
	if err := sw.SetRow("A1", headers); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, a := range attempts {
		user := "anonymous"
		if a.AccountID != nil {
			user = helper.SanitizeForExcel(*a.AccountID)
		}
		var taken interface{}
		if a.TimeTaken != nil {
			taken = *a.TimeTaken
		}
		row := []interface{}{a.ID, user, a.Score, a.TotalQuestions, a.Percentage, taken, a.CompletedAt.UTC().Format(time.RFC3339)}
		if err := sw.SetRow(fmt.Sprintf("A%d", i+2), row); err != nil {
			log.Printf("[AdminHandler] Failed to write export row %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush workbook: %w", err)
	}
	return f.WriteToBuffer()
}

// GetSettings возвращает все настройки
// GET /api/admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.GetAll(c.Request.Context())
	if err != nil {
		helper.RespondError(c, "AdminHandler", err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSetting сохраняет одну настройку. value может быть строкой, числом или bool.
// PUT /api/admin/settings/:key
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	var req struct {
		Value interface{} `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		helper.BadRequest(c, "value is required")
		return
	}

	key := c.GetString(SettingKeyKey)
	value := fmt.Sprint(req.Value)
	if err := h.settingsService.Set(c.Request.Context(), key, value); err != nil {
		helper.RespondError(c, "AdminHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Setting updated successfully", "key": key})
}
