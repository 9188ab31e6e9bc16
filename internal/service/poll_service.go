package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lvdashuaibi/littlepoll/internal/logger"
	"github.com/lvdashuaibi/littlepoll/internal/model"
	"github.com/lvdashuaibi/littlepoll/internal/repository"
	"github.com/lvdashuaibi/littlepoll/internal/visibility"
)

//go:generate mockgen -source=poll_service.go -destination=mocks/mocks.go -package=mocks

type QuestionStore interface {
	CreateQuestionWithChoices(ctx context.Context, text string, publishedAt time.Time, choices []string) (int64, error)
	GetQuestion(ctx context.Context, id int64) (model.Question, error)
	ListPublishedQuestions(ctx context.Context, now time.Time, limit int) ([]model.Question, error)
	ListQuestions(ctx context.Context) ([]model.Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
}

type ChoiceStore interface {
	CreateChoice(ctx context.Context, questionID int64, text string) (int64, error)
	ListChoices(ctx context.Context, questionID int64) ([]model.Choice, error)
	ListCurrentChoices(ctx context.Context, questionID int64) ([]model.Choice, error)
	GetChoice(ctx context.Context, questionID, choiceID int64) (model.Choice, error)
	IncrementChoiceVotes(ctx context.Context, questionID, choiceID int64) error
}

type VoteLogStore interface {
	SaveVoteLog(ctx context.Context, entry *model.VoteLog) (bool, error)
	ListVoteLogs(ctx context.Context, questionID int64) ([]model.VoteLog, error)
}

type ResultsCache interface {
	GetResults(ctx context.Context, questionID int64) (*model.QuestionResults, bool, error)
	ResultsVersion(ctx context.Context, questionID int64) (int64, error)
	SetResultsIfUnchanged(ctx context.Context, results *model.QuestionResults, version int64) (bool, error)
	InvalidateResults(ctx context.Context, questionID int64) error
}

type EventPublisher interface {
	SendVoteEvent(ctx context.Context, event *model.VoteEvent) error
}

// PublishTimeout 投票请求内发送事件的最长等待时间
const PublishTimeout = 2 * time.Second

// PollService 问题浏览、投票与管理。cache 和 events 可以为 nil
type PollService struct {
	log        *slog.Logger
	questions  QuestionStore
	choices    ChoiceStore
	voteLogs   VoteLogStore
	cache      ResultsCache
	events     EventPublisher
	indexLimit int
	now        func() time.Time
}

type Option func(*PollService)

// WithClock 替换当前时间来源
func WithClock(now func() time.Time) Option {
	return func(s *PollService) {
		s.now = now
	}
}

// WithResultsCache 启用结果缓存
func WithResultsCache(cache ResultsCache) Option {
	return func(s *PollService) {
		s.cache = cache
	}
}

// WithEventPublisher 投票成功后发送事件
func WithEventPublisher(events EventPublisher) Option {
	return func(s *PollService) {
		s.events = events
	}
}

func NewPollService(
	log *slog.Logger,
	questions QuestionStore,
	choices ChoiceStore,
	voteLogs VoteLogStore,
	indexLimit int,
	opts ...Option,
) *PollService {
	s := &PollService{
		log:        log,
		questions:  questions,
		choices:    choices,
		voteLogs:   voteLogs,
		indexLimit: indexLimit,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResultsPath 投票成功后的跳转地址
func ResultsPath(questionID int64) string {
	return fmt.Sprintf("/polls/%d/results/", questionID)
}

// LatestQuestions 最新发布的问题，最多 indexLimit 个
func (s *PollService) LatestQuestions(ctx context.Context) ([]model.Question, error) {
	const op = "service.PollService.LatestQuestions"

	now := s.now()
	questions, err := s.questions.ListPublishedQuestions(ctx, now, s.indexLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return visibility.Latest(now, questions, s.indexLimit), nil
}

// visibleQuestion 不存在或尚未发布的问题都视为不存在
func (s *PollService) visibleQuestion(ctx context.Context, id int64) (model.Question, error) {
	q, err := s.questions.GetQuestion(ctx, id)
	if err != nil {
		return model.Question{}, err
	}
	if !visibility.IsPublished(q, s.now()) {
		return model.Question{}, repository.ErrQuestionNotFound
	}
	return q, nil
}

// Question 详情页：问题、选项以及其他已发布的问题
func (s *PollService) Question(ctx context.Context, id int64) (*model.QuestionDetail, error) {
	const op = "service.PollService.Question"

	q, err := s.visibleQuestion(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	choices, err := s.choices.ListChoices(ctx, q.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	published, err := s.questions.ListPublishedQuestions(ctx, now, s.indexLimit+1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	others := visibility.Latest(now, visibility.Exclude(published, q.ID), s.indexLimit)

	return &model.QuestionDetail{
		Question: q,
		Choices:  choices,
		Others:   others,
	}, nil
}

// Results 问题的当前票数，优先读缓存
func (s *PollService) Results(ctx context.Context, id int64) (*model.QuestionResults, error) {
	const op = "service.PollService.Results"

	q, err := s.visibleQuestion(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// 读库前记下版本号，读库期间有投票时不回填
	var version int64
	fill := false
	if s.cache != nil {
		cached, ok, err := s.cache.GetResults(ctx, q.ID)
		if err != nil {
			s.log.Warn("读取结果缓存失败", slog.Int64("question_id", q.ID), logger.Err(err))
		} else if ok {
			return cached, nil
		}

		if version, err = s.cache.ResultsVersion(ctx, q.ID); err != nil {
			s.log.Warn("读取结果版本失败", slog.Int64("question_id", q.ID), logger.Err(err))
		} else {
			fill = true
		}
	}

	choices, err := s.choices.ListCurrentChoices(ctx, q.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	results := &model.QuestionResults{Question: q, Choices: choices}

	if fill {
		stored, err := s.cache.SetResultsIfUnchanged(ctx, results, version)
		if err != nil {
			s.log.Warn("写入结果缓存失败", slog.Int64("question_id", q.ID), logger.Err(err))
		} else if !stored {
			s.log.Debug("读取期间有新的投票，跳过回填", slog.Int64("question_id", q.ID))
		}
	}
	return results, nil
}

// Vote 为问题的一个选项投一票。rawChoice 为表单提交的选项ID
func (s *PollService) Vote(ctx context.Context, questionID int64, rawChoice string) (*model.VoteOutcome, error) {
	const op = "service.PollService.Vote"

	q, err := s.visibleQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	choiceID, err := strconv.ParseInt(strings.TrimSpace(rawChoice), 10, 64)
	if err != nil || choiceID <= 0 {
		return nil, noChoice()
	}

	if _, err := s.choices.GetChoice(ctx, q.ID, choiceID); err != nil {
		if errors.Is(err, repository.ErrChoiceNotFound) {
			return nil, noChoice()
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// 票数只通过数据库内的 votes = votes + 1 修改
	if err := s.choices.IncrementChoiceVotes(ctx, q.ID, choiceID); err != nil {
		if errors.Is(err, repository.ErrChoiceNotFound) {
			return nil, noChoice()
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidateResults(ctx, q.ID)
	s.publishVote(ctx, q.ID, choiceID)

	return &model.VoteOutcome{
		QuestionID:  q.ID,
		ChoiceID:    choiceID,
		ResultsPath: ResultsPath(q.ID),
	}, nil
}

func (s *PollService) invalidateResults(ctx context.Context, questionID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateResults(ctx, questionID); err != nil {
		s.log.Warn("清除结果缓存失败", slog.Int64("question_id", questionID), logger.Err(err))
	}
}

func (s *PollService) publishVote(ctx context.Context, questionID, choiceID int64) {
	if s.events == nil {
		return
	}

	event := &model.VoteEvent{
		ID:         uuid.NewString(),
		QuestionID: questionID,
		ChoiceID:   choiceID,
		VotedAt:    s.now().UTC(),
	}
	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	// 票数已经落库，事件发送失败不影响投票结果
	if err := s.events.SendVoteEvent(ctx, event); err != nil {
		s.log.Error("发送投票事件失败",
			slog.String("event_id", event.ID),
			slog.Int64("question_id", questionID),
			logger.Err(err))
	}
}

// ProcessVoteEvent 消费者回调：写入投票日志，重复事件忽略
func (s *PollService) ProcessVoteEvent(ctx context.Context, event *model.VoteEvent) error {
	const op = "service.PollService.ProcessVoteEvent"

	created, err := s.voteLogs.SaveVoteLog(ctx, &model.VoteLog{
		EventID:    event.ID,
		QuestionID: event.QuestionID,
		ChoiceID:   event.ChoiceID,
		VotedAt:    event.VotedAt,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !created {
		s.log.Debug("重复的投票事件", slog.String("event_id", event.ID))
	}
	return nil
}

func validateText(field, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &ValidationError{Field: field, Message: "must not be empty"}
	}
	if utf8.RuneCountInString(text) > model.MaxTextLength {
		return "", &ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", model.MaxTextLength)}
	}
	return text, nil
}

// CreateQuestion 创建问题及其选项；publishedAt 为空时立即发布
func (s *PollService) CreateQuestion(ctx context.Context, req *model.CreateQuestionRequest) (*model.QuestionResults, error) {
	const op = "service.PollService.CreateQuestion"

	text, err := validateText("text", req.Text)
	if err != nil {
		return nil, err
	}

	choiceTexts := make([]string, 0, len(req.Choices))
	for i, c := range req.Choices {
		ct, err := validateText(fmt.Sprintf("choices[%d]", i), c)
		if err != nil {
			return nil, err
		}
		choiceTexts = append(choiceTexts, ct)
	}

	publishedAt := s.now()
	if req.PublishedAt != nil {
		publishedAt = *req.PublishedAt
	}

	id, err := s.questions.CreateQuestionWithChoices(ctx, text, publishedAt, choiceTexts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("问题已创建", slog.Int64("question_id", id), slog.Int("choices", len(choiceTexts)))
	return s.AdminResults(ctx, id)
}

// AddChoice 为已有问题新增选项
func (s *PollService) AddChoice(ctx context.Context, questionID int64, req *model.CreateChoiceRequest) (*model.Choice, error) {
	const op = "service.PollService.AddChoice"

	text, err := validateText("text", req.Text)
	if err != nil {
		return nil, err
	}

	id, err := s.choices.CreateChoice(ctx, questionID, text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateResults(ctx, questionID)

	return &model.Choice{ID: id, QuestionID: questionID, Text: text}, nil
}

// DeleteQuestion 删除问题及其选项
func (s *PollService) DeleteQuestion(ctx context.Context, id int64) error {
	const op = "service.PollService.DeleteQuestion"

	if err := s.questions.DeleteQuestion(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateResults(ctx, id)

	s.log.Info("问题已删除", slog.Int64("question_id", id))
	return nil
}

// AllQuestions 管理端列表，包含未发布的问题
func (s *PollService) AllQuestions(ctx context.Context) ([]model.AdminQuestion, error) {
	const op = "service.PollService.AllQuestions"

	questions, err := s.questions.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	out := make([]model.AdminQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, model.AdminQuestion{
			Question:             q,
			Published:            visibility.IsPublished(q, now),
			WasPublishedRecently: q.WasPublishedRecently(now),
		})
	}
	return out, nil
}

// AdminResults 管理端查看任意问题的票数，不做可见性判断
func (s *PollService) AdminResults(ctx context.Context, id int64) (*model.QuestionResults, error) {
	const op = "service.PollService.AdminResults"

	q, err := s.questions.GetQuestion(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	choices, err := s.choices.ListCurrentChoices(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &model.QuestionResults{Question: q, Choices: choices}, nil
}

// VoteLogs 问题的投票日志，问题删除后仍保留
func (s *PollService) VoteLogs(ctx context.Context, questionID int64) ([]model.VoteLog, error) {
	const op = "service.PollService.VoteLogs"

	logs, err := s.voteLogs.ListVoteLogs(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return logs, nil
}
