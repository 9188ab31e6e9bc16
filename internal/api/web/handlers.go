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

type Polls interface {
	LatestQuestions(ctx context.Context) ([]model.Question, error)
	Question(ctx context.Context, id int64) (*model.QuestionDetail, error)
	Results(ctx context.Context, id int64) (*model.QuestionResults, error)
	Vote(ctx context.Context, questionID int64, rawChoice string) (*model.VoteOutcome, error)
}

// PollsHandler 投票页面
type PollsHandler struct {
	polls Polls
	log   *slog.Logger
}

func NewPollsHandler(polls Polls, log *slog.Logger) *PollsHandler {
	return &PollsHandler{polls: polls, log: log}
}

// RegisterRoutes 注册 /polls/ 下的页面路由
func RegisterRoutes(rg *gin.RouterGroup, h *PollsHandler) {
	{
		rg.GET("/", h.Index)
		rg.GET("/:id/", h.Detail)
		rg.GET("/:id/results/", h.Results)
		rg.POST("/:id/vote/", h.Vote)
	}
}

type indexPage struct {
	Title     string
	Questions []model.Question
}

type detailPage struct {
	Title        string
	Detail       *model.QuestionDetail
	ErrorMessage string
}

type resultsPage struct {
	Title   string
	Results *model.QuestionResults
}

type errorPage struct {
	Title   string
	Status  int
	Message string
}

// questionID 非法的ID按不存在处理
func questionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *PollsHandler) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "error.html", errorPage{
		Title:   "Not found",
		Status:  http.StatusNotFound,
		Message: "No question matches the given query.",
	})
}

func (h *PollsHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrQuestionNotFound) {
		h.notFound(c)
		return
	}

	h.log.Error("请求处理失败", slog.String("path", c.Request.URL.Path), logger.Err(err))
	c.HTML(http.StatusInternalServerError, "error.html", errorPage{
		Title:   "Server error",
		Status:  http.StatusInternalServerError,
		Message: "Something went wrong.",
	})
}

// Index 最新发布的问题
func (h *PollsHandler) Index(c *gin.Context) {
	questions, err := h.polls.LatestQuestions(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.HTML(http.StatusOK, "index.html", indexPage{Title: "Polls", Questions: questions})
}

// Detail 问题详情与投票表单
func (h *PollsHandler) Detail(c *gin.Context) {
	id, ok := questionID(c)
	if !ok {
		h.notFound(c)
		return
	}

	detail, err := h.polls.Question(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.HTML(http.StatusOK, "detail.html", detailPage{Title: detail.Question.Text, Detail: detail})
}

// Results 投票结果
func (h *PollsHandler) Results(c *gin.Context) {
	id, ok := questionID(c)
	if !ok {
		h.notFound(c)
		return
	}

	results, err := h.polls.Results(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.HTML(http.StatusOK, "results.html", resultsPage{Title: results.Question.Text, Results: results})
}

// Vote 处理投票表单：成功后 302 跳转到结果页，选项不合法时重新渲染详情页并提示
func (h *PollsHandler) Vote(c *gin.Context) {
	id, ok := questionID(c)
	if !ok {
		h.notFound(c)
		return
	}

	ctx := c.Request.Context()
	outcome, err := h.polls.Vote(ctx, id, c.PostForm("choice"))
	if err != nil {
		var vErr *service.ValidationError
		if !errors.As(err, &vErr) {
			h.fail(c, err)
			return
		}

		detail, err := h.polls.Question(ctx, id)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.HTML(http.StatusOK, "detail.html", detailPage{
			Title:        detail.Question.Text,
			Detail:       detail,
			ErrorMessage: vErr.Message,
		})
		return
	}

	c.Redirect(http.StatusFound, outcome.ResultsPath)
}
