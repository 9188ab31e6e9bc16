package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lvdashuaibi/littlepoll/internal/logger"
	"github.com/lvdashuaibi/littlepoll/internal/model"
	"github.com/lvdashuaibi/littlepoll/internal/repository"
	"github.com/lvdashuaibi/littlepoll/internal/service"
)

type Admin interface {
	CreateQuestion(ctx context.Context, req *model.CreateQuestionRequest) (*model.QuestionResults, error)
	AddChoice(ctx context.Context, questionID int64, req *model.CreateChoiceRequest) (*model.Choice, error)
	DeleteQuestion(ctx context.Context, id int64) error
	AllQuestions(ctx context.Context) ([]model.AdminQuestion, error)
	AdminResults(ctx context.Context, id int64) (*model.QuestionResults, error)
	VoteLogs(ctx context.Context, questionID int64) ([]model.VoteLog, error)
}

// AdminHandler 管理端JSON接口
type AdminHandler struct {
	admin Admin
	log   *slog.Logger
}

func NewAdminHandler(admin Admin, log *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, log: log}
}

// RegisterAdminRoutes 注册 /admin 下的接口，调用方负责鉴权
func RegisterAdminRoutes(rg *gin.RouterGroup, h *AdminHandler) {
	{
		rg.GET("/questions", h.ListQuestions)
		rg.POST("/questions", h.CreateQuestion)
		rg.GET("/questions/:id", h.GetQuestion)
		rg.DELETE("/questions/:id", h.DeleteQuestion)
		rg.POST("/questions/:id/choices", h.CreateChoice)
		rg.GET("/questions/:id/logs", h.VoteLogs)
	}
}

func (h *AdminHandler) respondError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "validation failed", Message: vErr.Error()})
	case errors.Is(err, repository.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "question not found"})
	default:
		h.log.Error("管理接口处理失败", slog.String("path", c.Request.URL.Path), logger.Err(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "internal error"})
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *AdminHandler) ListQuestions(c *gin.Context) {
	questions, err := h.admin.AllQuestions(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

func (h *AdminHandler) CreateQuestion(c *gin.Context) {
	var req model.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid input", Message: err.Error()})
		return
	}

	results, err := h.admin.CreateQuestion(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, results)
}

func (h *AdminHandler) GetQuestion(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	results, err := h.admin.AdminResults(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *AdminHandler) DeleteQuestion(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.admin.DeleteQuestion(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) CreateChoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req model.CreateChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid input", Message: err.Error()})
		return
	}

	choice, err := h.admin.AddChoice(c.Request.Context(), id, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, choice)
}

func (h *AdminHandler) VoteLogs(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	logs, err := h.admin.VoteLogs(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
