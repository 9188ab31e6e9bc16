package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvdashuaibi/littlepoll/internal/model"
	"github.com/lvdashuaibi/littlepoll/internal/repository"
	"github.com/lvdashuaibi/littlepoll/internal/service/mocks"
)

var now = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

type testDeps struct {
	questions *mocks.MockQuestionStore
	choices   *mocks.MockChoiceStore
	voteLogs  *mocks.MockVoteLogStore
	cache     *mocks.MockResultsCache
	events    *mocks.MockEventPublisher
}

func newTestService(t *testing.T, withExtras bool) (*PollService, testDeps) {
	ctrl := gomock.NewController(t)

	deps := testDeps{
		questions: mocks.NewMockQuestionStore(ctrl),
		choices:   mocks.NewMockChoiceStore(ctrl),
		voteLogs:  mocks.NewMockVoteLogStore(ctrl),
		cache:     mocks.NewMockResultsCache(ctrl),
		events:    mocks.NewMockEventPublisher(ctrl),
	}

	opts := []Option{WithClock(func() time.Time { return now })}
	if withExtras {
		opts = append(opts, WithResultsCache(deps.cache), WithEventPublisher(deps.events))
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPollService(log, deps.questions, deps.choices, deps.voteLogs, 5, opts...), deps
}

func question(id int64, age time.Duration) model.Question {
	return model.Question{ID: id, Text: fmt.Sprintf("Question %d?", id), PublishedAt: now.Add(-age)}
}

func TestPollService_LatestQuestions(t *testing.T) {
	svc, deps := newTestService(t, false)

	deps.questions.EXPECT().ListPublishedQuestions(gomock.Any(), now, 5).Return([]model.Question{
		question(1, 3*time.Hour),
		question(2, time.Hour),
		// a store that ignores the cutoff must not leak a future question
		question(3, -time.Hour),
	}, nil)

	qs, err := svc.LatestQuestions(context.Background())
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, int64(2), qs[0].ID)
	assert.Equal(t, int64(1), qs[1].ID)
}

func TestPollService_LatestQuestions_Empty(t *testing.T) {
	svc, deps := newTestService(t, false)

	deps.questions.EXPECT().ListPublishedQuestions(gomock.Any(), now, 5).Return(nil, nil)

	qs, err := svc.LatestQuestions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, qs)
	assert.Empty(t, qs)
}

func TestPollService_LatestQuestions_StoreError(t *testing.T) {
	svc, deps := newTestService(t, false)
	boom := errors.New("boom")

	deps.questions.EXPECT().ListPublishedQuestions(gomock.Any(), now, 5).Return(nil, boom)

	_, err := svc.LatestQuestions(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestPollService_Question(t *testing.T) {
	svc, deps := newTestService(t, false)
	q := question(1, time.Hour)
	choices := []model.Choice{{ID: 10, QuestionID: 1, Text: "Yes"}}

	deps.questions.EXPECT().GetQuestion(gomock.Any(), int64(1)).Return(q, nil)
	deps.choices.EXPECT().ListChoices(gomock.Any(), int64(1)).Return(choices, nil)
	deps.questions.EXPECT().ListPublishedQuestions(gomock.Any(), now, 6).Return([]model.Question{
		q, question(2, 2*time.Hour),
	}, nil)

	detail, err := svc.Question(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, q, detail.Question)
	assert.Equal(t, choices, detail.Choices)
	require.Len(t, detail.Others, 1)
	assert.Equal(t, int64(2), detail.Others[0].ID)
}

func TestPollService_Question_NotVisible(t *testing.T) {
	tests := []struct {
		name string
		ret  model.Question
		err  error
	}{
		{name: "missing", err: fmt.Errorf("store: %w", repository.ErrQuestionNotFound)},
		{name: "future", ret: question(1, -time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := newTestService(t, false)
			deps.questions.EXPECT().GetQuestion(gomock.Any(), int64(1)).Return(tt.ret, tt.err)

			_, err := svc.Question(context.Background(), 1)
			assert.ErrorIs(t, err, repository.ErrQuestionNotFound)
		})
	}
}

func TestPollService_Results_CacheMissThenFill(t *testing.T) {
	svc, deps := newTestService(t, true)
	q := question(1, time.Hour)
	choices := []model.Choice{{ID: 10, QuestionID: 1, Text: "Yes", Votes: 3}}

	gomock.InOrder(
		deps.questions.EXPECT().GetQuestion(gomock.Any(), int64(1)).Return(q, nil),
		deps.cache.EXPECT().GetResults(gomock.Any(), int64(1)).Return(nil, false, nil),
		deps.cache.EXPECT().ResultsVersion(gomock.Any(), int64(1)).Return(int64(6), nil),
		deps.choices.EXPECT().ListCurrentChoices(gomock.Any(), int64(1)).Return(choices, nil),
		deps.cache.EXPECT().SetResultsIfUnchanged(gomock.Any(), &model.QuestionResults{Question: q, Choices: choices}, int64(6)).
			Return(true, nil),
	)

	res, err := svc.Results(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.TotalVotes())
}

func TestPollService_Results_VersionChangedDuringRead(t *testing.T) {
	svc, deps := newTestService(t, true)
	q := question(1, time.Hour)
	choices := []model.Choice{{ID: 10, QuestionID: 1, Text: "Yes", Votes: 3}}

	deps.questions.EXPECT().GetQuestion(gomock.Any(), int64(1)).Return(q, nil)
	deps.cache.EXPECT().GetResults(gomock.Any(), int64(1)).Return(nil, false, nil)
	deps.cache.EXPECT().ResultsVersion(gomock.Any(), int64(1)).Return(int64(2), nil)
	deps.choices.EXPECT().ListCurrentChoices(gomock.Any(), int64(1)).Return(choices, nil)
	deps.cache.EXPECT().SetResultsIfUnchanged(gomock.Any(), gomock.Any(), int64(2)).Return(false, nil)

	res, err := svc.Results(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, choices, res.Choices)
}

func TestPollService_Results_VersionErrorSkipsFill(t *testing.T) {
	svc, deps := newTestService(t, true)
	q := question(1, time.Hour)

	deps.questions.EXPECT().GetQuestion(gomock.Any(), int64(1)).Return(q, nil)
	deps.cache.EXPECT().GetResults(gomock.Any(), int64(1)).Return(nil, false, nil)
	deps.cache.EXPECT().ResultsVersion(gomock.Any(), int64(1)).Return(int64(0), errors.New("redis down"))
	deps.choices.EXPECT().ListCurrentChoices(gomock.Any(), int64(1)).Return([]model.Choice{}, nil)

	res, err := svc.Results(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, q, res.Question)
}

func TestPollService_Results_CacheHit(t *testing.T) {
	svc, deps := newTestService(t, true)
	q := question(1, time.Hour)
	cached := &model.QuestionResults{Question: q, Choices: []model.Choice{{ID: 10, Votes: 8}}}

	deps.questions.EXPECT().GetQuestion(gomock.Any(), int64(1)).Return(q, nil)
	deps.cache.EXPECT().GetResults(gomock.Any(), int64(1)).Return(cached, true, nil)

	res, err := svc.Results(context.Background(), 1)
	require.NoError(t, err)
	assert.Same(t, cached, res)
}

func TestPollService_Results_CacheErrorFallsBack(t *testing.T) {
	svc, deps := newTestService(t, true)
	q := question(1, time.Hour)

	deps.questions.EXPECT().GetQuestion(gomock.Any(), int64(1)).Return(q, nil)
	deps.cache.EXPECT().GetResults(gomock.Any(), int64(1)).Return(nil, false, errors.New("redis down"))
	deps.cache.EXPECT().ResultsVersion(gomock.Any(), int64(1)).Return(int64(0), nil)
	deps.choices.EXPECT().ListCurrentChoices(gomock.Any(), int64(1)).Return([]model.Choice{}, nil)
	deps.cache.EXPECT().SetResultsIfUnchanged(gomock.Any(), gomock.Any(), int64(0)).Return(false, errors.New("redis down"))

	res, err := svc.Results(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, q, res.Question)
}

func TestPollService_Results_Future(t *testing.T) {
	svc, deps := newTestService(t, true)

	deps.questions.EXPECT().GetQuestion(gomock.Any(), int64(1)).Return(question(1, -time.Hour), nil)

	_, err := svc.Results(context.Background(), 1)
	assert.ErrorIs(t, err, repository.ErrQuestionNotFound)
}

func TestPollService_Vote_Success(t *testing.T) {
	svc, deps := newTestService(t, true)
	q := question(4, time.Hour)

	var sent *model.VoteEvent
	gomock.InOrder(
		deps.questions.EXPECT().GetQuestion(gomock.Any(), int64(4)).Return(q, nil),
		deps.choices.EXPECT().GetChoice(gomock.Any(), int64(4), int64(12)).Return(model.Choice{ID: 12, QuestionID: 4}, nil),
		deps.choices.EXPECT().IncrementChoiceVotes(gomock.Any(), int64(4), int64(12)).Return(nil),
		deps.cache.EXPECT().InvalidateResults(gomock.Any(), int64(4)).Return(nil),
		deps.events.EXPECT().SendVoteEvent(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, e *model.VoteEvent) error {
				deadline, ok := ctx.Deadline()
				assert.True(t, ok)
				assert.WithinDuration(t, time.Now().Add(PublishTimeout), deadline, time.Second)
				sent = e
				return nil
			}),
	)

	out, err := svc.Vote(context.Background(), 4, "12")
	require.NoError(t, err)
	assert.Equal(t, &model.VoteOutcome{QuestionID: 4, ChoiceID: 12, ResultsPath: "/polls/4/results/"}, out)

	require.NotNil(t, sent)
	assert.NotEmpty(t, sent.ID)
	assert.Equal(t, int64(4), sent.QuestionID)
	assert.Equal(t, int64(12), sent.ChoiceID)
	assert.True(t, sent.VotedAt.Equal(now))
}

func TestPollService_Vote_SideEffectFailuresAreNotFatal(t *testing.T) {
	svc, deps := newTestService(t, true)

	deps.questions.EXPECT().GetQuestion(gomock.Any(), int64(4)).Return(question(4, time.Hour), nil)
	deps.choices.EXPECT().GetChoice(gomock.Any(), int64(4), int64(12)).Return(model.Choice{ID: 12, QuestionID: 4}, nil)
	deps.choices.EXPECT().IncrementChoiceVotes(gomock.Any(), int64(4), int64(12)).Return(nil)
	deps.cache.EXPECT().InvalidateResults(gomock.Any(), int64(4)).Return(errors.New("redis down"))
	deps.events.EXPECT().SendVoteEvent(gomock.Any(), gomock.Any()).Return(errors.New("kafka down"))

	out, err := svc.Vote(context.Background(), 4, "12")
	require.NoError(t, err)
	assert.Equal(t, "/polls/4/results/", out.ResultsPath)
}

func TestPollService_Vote_InvalidChoice(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc", "0", "-3", "1.5"} {
		t.Run(fmt.Sprintf("%q", raw), func(t *testing.T) {
			svc, deps := newTestService(t, true)
			deps.questions.EXPECT().GetQuestion(gomock.Any(), int64(4)).Return(question(4, time.Hour), nil)

			_, err := svc.Vote(context.Background(), 4, raw)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, "choice", vErr.Field)
			assert.Equal(t, "You didn't select a choice!", vErr.Message)
		})
	}
}

func TestPollService_Vote_ChoiceOfAnotherQuestion(t *testing.T) {
	svc, deps := newTestService(t, true)

	deps.questions.EXPECT().GetQuestion(gomock.Any(), int64(4)).Return(question(4, time.Hour), nil)
	deps.choices.EXPECT().GetChoice(gomock.Any(), int64(4), int64(99)).
		Return(model.Choice{}, fmt.Errorf("store: %w", repository.ErrChoiceNotFound))

	_, err := svc.Vote(context.Background(), 4, "99")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, MsgNoChoice, vErr.Message)
}

func TestPollService_Vote_ChoiceDeletedBeforeIncrement(t *testing.T) {
	svc, deps := newTestService(t, true)

	deps.questions.EXPECT().GetQuestion(gomock.Any(), int64(4)).Return(question(4, time.Hour), nil)
	deps.choices.EXPECT().GetChoice(gomock.Any(), int64(4), int64(12)).Return(model.Choice{ID: 12, QuestionID: 4}, nil)
	deps.choices.EXPECT().IncrementChoiceVotes(gomock.Any(), int64(4), int64(12)).
		Return(fmt.Errorf("store: %w", repository.ErrChoiceNotFound))

	_, err := svc.Vote(context.Background(), 4, "12")

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestPollService_Vote_QuestionNotFound(t *testing.T) {
	tests := []struct {
		name string
		ret  model.Question
		err  error
	}{
		{name: "missing", err: repository.ErrQuestionNotFound},
		{name: "future", ret: question(4, -time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := newTestService(t, true)
			deps.questions.EXPECT().GetQuestion(gomock.Any(), int64(4)).Return(tt.ret, tt.err)

			_, err := svc.Vote(context.Background(), 4, "12")
			assert.ErrorIs(t, err, repository.ErrQuestionNotFound)

			var vErr *ValidationError
			assert.False(t, errors.As(err, &vErr))
		})
	}
}

func TestPollService_Vote_StoreError(t *testing.T) {
	svc, deps := newTestService(t, false)
	boom := errors.New("connection reset")

	deps.questions.EXPECT().GetQuestion(gomock.Any(), int64(4)).Return(question(4, time.Hour), nil)
	deps.choices.EXPECT().GetChoice(gomock.Any(), int64(4), int64(12)).Return(model.Choice{ID: 12, QuestionID: 4}, nil)
	deps.choices.EXPECT().IncrementChoiceVotes(gomock.Any(), int64(4), int64(12)).Return(boom)

	_, err := svc.Vote(context.Background(), 4, "12")
	assert.ErrorIs(t, err, boom)
}

func TestPollService_ProcessVoteEvent(t *testing.T) {
	svc, deps := newTestService(t, false)
	event := &model.VoteEvent{ID: "evt", QuestionID: 1, ChoiceID: 2, VotedAt: now}

	deps.voteLogs.EXPECT().SaveVoteLog(gomock.Any(), &model.VoteLog{
		EventID: "evt", QuestionID: 1, ChoiceID: 2, VotedAt: now,
	}).Return(true, nil)
	deps.voteLogs.EXPECT().SaveVoteLog(gomock.Any(), gomock.Any()).Return(false, nil)

	require.NoError(t, svc.ProcessVoteEvent(context.Background(), event))
	require.NoError(t, svc.ProcessVoteEvent(context.Background(), event))
}

func TestPollService_CreateQuestion(t *testing.T) {
	svc, deps := newTestService(t, false)

	deps.questions.EXPECT().CreateQuestionWithChoices(gomock.Any(), "Favourite colour?", now, []string{"Red", "Blue"}).
		Return(int64(7), nil)
	deps.questions.EXPECT().GetQuestion(gomock.Any(), int64(7)).
		Return(model.Question{ID: 7, Text: "Favourite colour?", PublishedAt: now}, nil)
	deps.choices.EXPECT().ListCurrentChoices(gomock.Any(), int64(7)).Return([]model.Choice{
		{ID: 1, QuestionID: 7, Text: "Red"},
		{ID: 2, QuestionID: 7, Text: "Blue"},
	}, nil)

	res, err := svc.CreateQuestion(context.Background(), &model.CreateQuestionRequest{
		Text:    "  Favourite colour?  ",
		Choices: []string{"Red", " Blue"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.Question.ID)
	assert.Len(t, res.Choices, 2)
}

func TestPollService_CreateQuestion_Scheduled(t *testing.T) {
	svc, deps := newTestService(t, false)
	later := now.Add(48 * time.Hour)

	deps.questions.EXPECT().CreateQuestionWithChoices(gomock.Any(), "Later?", later, []string{}).Return(int64(8), nil)
	deps.questions.EXPECT().GetQuestion(gomock.Any(), int64(8)).Return(model.Question{ID: 8, PublishedAt: later}, nil)
	deps.choices.EXPECT().ListCurrentChoices(gomock.Any(), int64(8)).Return([]model.Choice{}, nil)

	_, err := svc.CreateQuestion(context.Background(), &model.CreateQuestionRequest{Text: "Later?", PublishedAt: &later})
	require.NoError(t, err)
}

func TestPollService_CreateQuestion_StoreError(t *testing.T) {
	svc, deps := newTestService(t, false)
	boom := errors.New("insert choice: disk full")

	deps.questions.EXPECT().CreateQuestionWithChoices(gomock.Any(), "Q?", now, []string{"a", "b"}).Return(int64(0), boom)

	_, err := svc.CreateQuestion(context.Background(), &model.CreateQuestionRequest{Text: "Q?", Choices: []string{"a", "b"}})
	assert.ErrorIs(t, err, boom)
}

func TestPollService_CreateQuestion_Invalid(t *testing.T) {
	long := make([]byte, model.MaxTextLength+1)
	for i := range long {
		long[i] = 'x'
	}

	tests := []struct {
		name  string
		req   model.CreateQuestionRequest
		field string
	}{
		{name: "empty text", req: model.CreateQuestionRequest{Text: " "}, field: "text"},
		{name: "long text", req: model.CreateQuestionRequest{Text: string(long)}, field: "text"},
		{name: "empty choice", req: model.CreateQuestionRequest{Text: "Q?", Choices: []string{"a", ""}}, field: "choices[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, false)

			_, err := svc.CreateQuestion(context.Background(), &tt.req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestPollService_AddChoice(t *testing.T) {
	svc, deps := newTestService(t, true)

	deps.choices.EXPECT().CreateChoice(gomock.Any(), int64(3), "Maybe").Return(int64(30), nil)
	deps.cache.EXPECT().InvalidateResults(gomock.Any(), int64(3)).Return(nil)

	c, err := svc.AddChoice(context.Background(), 3, &model.CreateChoiceRequest{Text: "Maybe"})
	require.NoError(t, err)
	assert.Equal(t, &model.Choice{ID: 30, QuestionID: 3, Text: "Maybe"}, c)
}

func TestPollService_AddChoice_UnknownQuestion(t *testing.T) {
	svc, deps := newTestService(t, true)

	deps.choices.EXPECT().CreateChoice(gomock.Any(), int64(3), "Maybe").Return(int64(0), repository.ErrQuestionNotFound)

	_, err := svc.AddChoice(context.Background(), 3, &model.CreateChoiceRequest{Text: "Maybe"})
	assert.ErrorIs(t, err, repository.ErrQuestionNotFound)
}

func TestPollService_DeleteQuestion(t *testing.T) {
	svc, deps := newTestService(t, true)

	deps.questions.EXPECT().DeleteQuestion(gomock.Any(), int64(3)).Return(nil)
	deps.cache.EXPECT().InvalidateResults(gomock.Any(), int64(3)).Return(nil)

	require.NoError(t, svc.DeleteQuestion(context.Background(), 3))
}

func TestPollService_AllQuestions(t *testing.T) {
	svc, deps := newTestService(t, false)

	deps.questions.EXPECT().ListQuestions(gomock.Any()).Return([]model.Question{
		question(1, -time.Hour),
		question(2, time.Hour),
		question(3, 72*time.Hour),
	}, nil)

	qs, err := svc.AllQuestions(context.Background())
	require.NoError(t, err)
	require.Len(t, qs, 3)

	assert.False(t, qs[0].Published)
	assert.False(t, qs[0].WasPublishedRecently)
	assert.True(t, qs[1].Published)
	assert.True(t, qs[1].WasPublishedRecently)
	assert.True(t, qs[2].Published)
	assert.False(t, qs[2].WasPublishedRecently)
}

func TestPollService_VoteLogs(t *testing.T) {
	svc, deps := newTestService(t, false)
	logs := []model.VoteLog{{ID: 1, EventID: "e", QuestionID: 5, ChoiceID: 6, VotedAt: now}}

	deps.voteLogs.EXPECT().ListVoteLogs(gomock.Any(), int64(5)).Return(logs, nil)

	got, err := svc.VoteLogs(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, logs, got)
}
