package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvdashuaibi/littlepoll/internal/model"
	"github.com/lvdashuaibi/littlepoll/internal/repository"
	"github.com/lvdashuaibi/littlepoll/internal/testutil"
)

var base = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestSQLRepository_CreateAndGetQuestion(t *testing.T) {
	repo := testutil.NewSQLite(t)
	ctx := context.Background()

	published := base.Add(-time.Hour).Add(123 * time.Millisecond)
	id, err := repo.CreateQuestion(ctx, "What's up?", published)
	require.NoError(t, err)
	assert.Positive(t, id)

	q, err := repo.GetQuestion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, q.ID)
	assert.Equal(t, "What's up?", q.Text)
	assert.True(t, q.PublishedAt.Equal(published.Truncate(time.Second)), "got %s", q.PublishedAt)
	assert.Equal(t, time.UTC, q.PublishedAt.Location())
}

func TestSQLRepository_GetQuestion_NotFound(t *testing.T) {
	repo := testutil.NewSQLite(t)

	_, err := repo.GetQuestion(context.Background(), 404)
	assert.ErrorIs(t, err, repository.ErrQuestionNotFound)
}

func TestSQLRepository_ListPublishedQuestions(t *testing.T) {
	repo := testutil.NewSQLite(t)
	ctx := context.Background()

	old, _ := testutil.CreateQuestion(t, repo, base.Add(-30*24*time.Hour), 0)
	exact, _ := testutil.CreateQuestion(t, repo, base, 0)
	recent, _ := testutil.CreateQuestion(t, repo, base.Add(-time.Minute), 0)
	testutil.CreateQuestion(t, repo, base.Add(time.Second), 0)
	testutil.CreateQuestion(t, repo, base.Add(30*24*time.Hour), 0)

	qs, err := repo.ListPublishedQuestions(ctx, base, 0)
	require.NoError(t, err)
	require.Len(t, qs, 3)
	assert.Equal(t, []int64{exact, recent, old}, []int64{qs[0].ID, qs[1].ID, qs[2].ID})

	qs, err = repo.ListPublishedQuestions(ctx, base, 2)
	require.NoError(t, err)
	assert.Len(t, qs, 2)
}

func TestSQLRepository_ListPublishedQuestions_Empty(t *testing.T) {
	repo := testutil.NewSQLite(t)
	testutil.CreateQuestion(t, repo, base.Add(time.Hour), 0)

	qs, err := repo.ListPublishedQuestions(context.Background(), base, 5)
	require.NoError(t, err)
	assert.NotNil(t, qs)
	assert.Empty(t, qs)
}

func TestSQLRepository_ListQuestions_IncludesFuture(t *testing.T) {
	repo := testutil.NewSQLite(t)
	testutil.CreateQuestion(t, repo, base.Add(-time.Hour), 0)
	future, _ := testutil.CreateQuestion(t, repo, base.Add(time.Hour), 0)

	qs, err := repo.ListQuestions(context.Background())
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, future, qs[0].ID)
}

func TestSQLRepository_Choices(t *testing.T) {
	repo := testutil.NewSQLite(t)
	ctx := context.Background()

	qid, cids := testutil.CreateQuestion(t, repo, base, 3)
	otherQ, otherC := testutil.CreateQuestion(t, repo, base, 1)

	choices, err := repo.ListChoices(ctx, qid)
	require.NoError(t, err)
	require.Len(t, choices, 3)
	for i, c := range choices {
		assert.Equal(t, cids[i], c.ID)
		assert.Equal(t, qid, c.QuestionID)
		assert.Zero(t, c.Votes)
	}

	c, err := repo.GetChoice(ctx, qid, cids[1])
	require.NoError(t, err)
	assert.Equal(t, cids[1], c.ID)

	_, err = repo.GetChoice(ctx, qid, otherC[0])
	assert.ErrorIs(t, err, repository.ErrChoiceNotFound, "choice of another question")

	_, err = repo.GetChoice(ctx, otherQ, 9999)
	assert.ErrorIs(t, err, repository.ErrChoiceNotFound)
}

func TestSQLRepository_ListChoices_Empty(t *testing.T) {
	repo := testutil.NewSQLite(t)
	qid, _ := testutil.CreateQuestion(t, repo, base, 0)

	choices, err := repo.ListChoices(context.Background(), qid)
	require.NoError(t, err)
	assert.NotNil(t, choices)
	assert.Empty(t, choices)
}

func TestSQLRepository_CreateChoice_UnknownQuestion(t *testing.T) {
	repo := testutil.NewSQLite(t)

	_, err := repo.CreateChoice(context.Background(), 77, "nope")
	assert.ErrorIs(t, err, repository.ErrQuestionNotFound)
}

func TestSQLRepository_IncrementChoiceVotes(t *testing.T) {
	repo := testutil.NewSQLite(t)
	ctx := context.Background()

	qid, cids := testutil.CreateQuestion(t, repo, base, 2)
	otherQ, otherC := testutil.CreateQuestion(t, repo, base, 1)

	require.NoError(t, repo.IncrementChoiceVotes(ctx, qid, cids[0]))
	require.NoError(t, repo.IncrementChoiceVotes(ctx, qid, cids[0]))

	choices, err := repo.ListChoices(ctx, qid)
	require.NoError(t, err)
	assert.Equal(t, int64(2), choices[0].Votes)
	assert.Equal(t, int64(0), choices[1].Votes)

	err = repo.IncrementChoiceVotes(ctx, qid, otherC[0])
	assert.ErrorIs(t, err, repository.ErrChoiceNotFound)

	other, err := repo.ListChoices(ctx, otherQ)
	require.NoError(t, err)
	for _, c := range other {
		assert.Zero(t, c.Votes)
	}
}

func TestSQLRepository_IncrementChoiceVotes_Concurrent(t *testing.T) {
	repo := testutil.NewSQLite(t)
	ctx := context.Background()
	qid, cids := testutil.CreateQuestion(t, repo, base, 1)

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.IncrementChoiceVotes(ctx, qid, cids[0])
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	c, err := repo.GetChoice(ctx, qid, cids[0])
	require.NoError(t, err)
	assert.Equal(t, int64(n), c.Votes)
}

func TestSQLRepository_DeleteQuestion(t *testing.T) {
	repo := testutil.NewSQLite(t)
	ctx := context.Background()

	qid, cids := testutil.CreateQuestion(t, repo, base, 2)
	keep, _ := testutil.CreateQuestion(t, repo, base, 1)

	require.NoError(t, repo.DeleteQuestion(ctx, qid))

	_, err := repo.GetQuestion(ctx, qid)
	assert.ErrorIs(t, err, repository.ErrQuestionNotFound)

	_, err = repo.GetChoice(ctx, qid, cids[0])
	assert.ErrorIs(t, err, repository.ErrChoiceNotFound)

	_, err = repo.GetQuestion(ctx, keep)
	assert.NoError(t, err)

	err = repo.DeleteQuestion(ctx, qid)
	assert.ErrorIs(t, err, repository.ErrQuestionNotFound)
}

func TestSQLRepository_VoteLogs(t *testing.T) {
	repo := testutil.NewSQLite(t)
	ctx := context.Background()

	first := &model.VoteLog{EventID: "e-1", QuestionID: 1, ChoiceID: 2, VotedAt: base}
	created, err := repo.SaveVoteLog(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Positive(t, first.ID)

	created, err = repo.SaveVoteLog(ctx, &model.VoteLog{EventID: "e-1", QuestionID: 1, ChoiceID: 2, VotedAt: base})
	require.NoError(t, err)
	assert.False(t, created, "duplicate event must be ignored")

	_, err = repo.SaveVoteLog(ctx, &model.VoteLog{EventID: "e-2", QuestionID: 1, ChoiceID: 3, VotedAt: base.Add(time.Minute)})
	require.NoError(t, err)
	_, err = repo.SaveVoteLog(ctx, &model.VoteLog{EventID: "e-3", QuestionID: 9, ChoiceID: 1, VotedAt: base})
	require.NoError(t, err)

	logs, err := repo.ListVoteLogs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "e-2", logs[0].EventID)
	assert.Equal(t, "e-1", logs[1].EventID)
	assert.True(t, logs[1].VotedAt.Equal(base))
}

func TestSQLRepository_CreateQuestionWithChoices(t *testing.T) {
	repo := testutil.NewSQLite(t)
	ctx := context.Background()

	qid, err := repo.CreateQuestionWithChoices(ctx, "Tea or coffee?", base, []string{"Tea", "Coffee"})
	require.NoError(t, err)

	q, err := repo.GetQuestion(ctx, qid)
	require.NoError(t, err)
	assert.Equal(t, "Tea or coffee?", q.Text)

	choices, err := repo.ListCurrentChoices(ctx, qid)
	require.NoError(t, err)
	require.Len(t, choices, 2)
	assert.Equal(t, "Tea", choices[0].Text)
	assert.Equal(t, "Coffee", choices[1].Text)
	assert.Zero(t, choices[0].Votes)
}

func TestSQLRepository_CreateQuestionWithChoices_RollsBack(t *testing.T) {
	repo := testutil.NewSQLite(t)
	ctx := context.Background()

	// 让选项插入失败
	_, err := repo.Master().ExecContext(ctx, "DROP TABLE choices")
	require.NoError(t, err)

	_, err = repo.CreateQuestionWithChoices(ctx, "Tea or coffee?", base, []string{"Tea", "Coffee"})
	require.Error(t, err)

	questions, err := repo.ListQuestions(ctx)
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestSQLRepository_ListCurrentChoices(t *testing.T) {
	repo := testutil.NewSQLite(t)
	ctx := context.Background()
	qid, cids := testutil.CreateQuestion(t, repo, base, 2)

	require.NoError(t, repo.IncrementChoiceVotes(ctx, qid, cids[1]))

	current, err := repo.ListCurrentChoices(ctx, qid)
	require.NoError(t, err)
	replica, err := repo.ListChoices(ctx, qid)
	require.NoError(t, err)

	assert.Equal(t, replica, current)
	assert.Equal(t, int64(1), current[1].Votes)
}

func TestSQLRepository_SaveVoteLog_ConcurrentDuplicates(t *testing.T) {
	repo := testutil.NewSQLite(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	type result struct {
		created bool
		err     error
	}
	results := make(chan result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := repo.SaveVoteLog(ctx, &model.VoteLog{EventID: "e-dup", QuestionID: 1, ChoiceID: 2, VotedAt: base})
			results <- result{created, err}
		}()
	}
	wg.Wait()
	close(results)

	created := 0
	for r := range results {
		require.NoError(t, r.err)
		if r.created {
			created++
		}
	}
	assert.Equal(t, 1, created)

	logs, err := repo.ListVoteLogs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestSQLRepository_Ping(t *testing.T) {
	repo := testutil.NewSQLite(t)
	assert.NoError(t, repo.Ping(context.Background()))
	assert.Equal(t, repository.DriverSQLite, repo.Driver())
}
