package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/lvdashuaibi/littlepoll/internal/logger"
	"github.com/lvdashuaibi/littlepoll/internal/model"
	"github.com/lvdashuaibi/littlepoll/internal/repository"
	"github.com/lvdashuaibi/littlepoll/internal/service"
)

var ErrQuestionNotFound = errors.New("question not found")

type Polls interface {
	LatestQuestions(ctx context.Context) ([]model.Question, error)
	Question(ctx context.Context, id int64) (*model.QuestionDetail, error)
	Results(ctx context.Context, id int64) (*model.QuestionResults, error)
	Vote(ctx context.Context, questionID int64, rawChoice string) (*model.VoteOutcome, error)
}

// Resolver GraphQL解析器
type Resolver struct {
	polls Polls
	log   *slog.Logger
	now   func() time.Time
}

func NewResolver(polls Polls, log *slog.Logger) *Resolver {
	return &Resolver{polls: polls, log: log, now: time.Now}
}

func parseID(id graphql.ID) (int64, error) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrQuestionNotFound
	}
	return n, nil
}

// publicError 不暴露内部错误
func (r *Resolver) publicError(op string, err error) error {
	if errors.Is(err, repository.ErrQuestionNotFound) {
		return ErrQuestionNotFound
	}
	r.log.Error("GraphQL请求失败", slog.String("op", op), logger.Err(err))
	return errors.New("internal error")
}

// LatestQuestions 最新发布的问题
func (r *Resolver) LatestQuestions(ctx context.Context) ([]*QuestionResolver, error) {
	questions, err := r.polls.LatestQuestions(ctx)
	if err != nil {
		return nil, r.publicError("latestQuestions", err)
	}
	return r.questionResolvers(questions), nil
}

// Question 问题详情
func (r *Resolver) Question(ctx context.Context, args struct{ ID graphql.ID }) (*QuestionDetailResolver, error) {
	id, err := parseID(args.ID)
	if err != nil {
		return nil, err
	}

	detail, err := r.polls.Question(ctx, id)
	if err != nil {
		return nil, r.publicError("question", err)
	}
	return &QuestionDetailResolver{detail: detail, r: r}, nil
}

// Results 问题票数
func (r *Resolver) Results(ctx context.Context, args struct{ ID graphql.ID }) (*QuestionResultsResolver, error) {
	id, err := parseID(args.ID)
	if err != nil {
		return nil, err
	}

	results, err := r.polls.Results(ctx, id)
	if err != nil {
		return nil, r.publicError("results", err)
	}
	return &QuestionResultsResolver{results: results, r: r}, nil
}

// Vote 投票；选项不合法时 success=false
func (r *Resolver) Vote(ctx context.Context, args struct {
	QuestionID graphql.ID
	ChoiceID   graphql.ID
}) (*VoteResultResolver, error) {
	id, err := parseID(args.QuestionID)
	if err != nil {
		return nil, err
	}

	outcome, err := r.polls.Vote(ctx, id, string(args.ChoiceID))
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			return &VoteResultResolver{message: vErr.Message}, nil
		}
		return nil, r.publicError("vote", err)
	}

	path := outcome.ResultsPath
	return &VoteResultResolver{
		success:     true,
		message:     fmt.Sprintf("vote recorded for choice %d", outcome.ChoiceID),
		resultsPath: &path,
	}, nil
}

func (r *Resolver) questionResolvers(questions []model.Question) []*QuestionResolver {
	out := make([]*QuestionResolver, len(questions))
	for i := range questions {
		out[i] = &QuestionResolver{q: questions[i], now: r.now}
	}
	return out
}

func choiceResolvers(choices []model.Choice) []*ChoiceResolver {
	out := make([]*ChoiceResolver, len(choices))
	for i := range choices {
		out[i] = &ChoiceResolver{c: choices[i]}
	}
	return out
}

// GraphQL Int 为32位
func toInt32(n int64) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(n)
}

// QuestionResolver 问题解析器
type QuestionResolver struct {
	q   model.Question
	now func() time.Time
}

func (r *QuestionResolver) ID() graphql.ID {
	return graphql.ID(strconv.FormatInt(r.q.ID, 10))
}

func (r *QuestionResolver) Text() string {
	return r.q.Text
}

func (r *QuestionResolver) PublishedAt() string {
	return r.q.PublishedAt.UTC().Format(time.RFC3339)
}

func (r *QuestionResolver) WasPublishedRecently() bool {
	return r.q.WasPublishedRecently(r.now())
}

// ChoiceResolver 选项解析器
type ChoiceResolver struct {
	c model.Choice
}

func (r *ChoiceResolver) ID() graphql.ID {
	return graphql.ID(strconv.FormatInt(r.c.ID, 10))
}

func (r *ChoiceResolver) Text() string {
	return r.c.Text
}

func (r *ChoiceResolver) Votes() int32 {
	return toInt32(r.c.Votes)
}

// QuestionDetailResolver 详情解析器
type QuestionDetailResolver struct {
	detail *model.QuestionDetail
	r      *Resolver
}

func (d *QuestionDetailResolver) Question() *QuestionResolver {
	return &QuestionResolver{q: d.detail.Question, now: d.r.now}
}

func (d *QuestionDetailResolver) Choices() []*ChoiceResolver {
	return choiceResolvers(d.detail.Choices)
}

func (d *QuestionDetailResolver) Others() []*QuestionResolver {
	return d.r.questionResolvers(d.detail.Others)
}

// QuestionResultsResolver 结果解析器
type QuestionResultsResolver struct {
	results *model.QuestionResults
	r       *Resolver
}

func (q *QuestionResultsResolver) Question() *QuestionResolver {
	return &QuestionResolver{q: q.results.Question, now: q.r.now}
}

func (q *QuestionResultsResolver) Choices() []*ChoiceResolver {
	return choiceResolvers(q.results.Choices)
}

func (q *QuestionResultsResolver) TotalVotes() int32 {
	return toInt32(q.results.TotalVotes())
}

// VoteResultResolver 投票结果解析器
type VoteResultResolver struct {
	success     bool
	message     string
	resultsPath *string
}

func (v *VoteResultResolver) Success() bool {
	return v.success
}

func (v *VoteResultResolver) Message() string {
	return v.message
}

func (v *VoteResultResolver) ResultsPath() *string {
	return v.resultsPath
}
