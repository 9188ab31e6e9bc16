// Package testutil provides a throwaway sqlite database with the real schema
// and fixture helpers for tests.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/lvdashuaibi/littlepoll/internal/model"
	"github.com/lvdashuaibi/littlepoll/internal/repository"
	"github.com/lvdashuaibi/littlepoll/migrations"
)

// NewSQLite creates a migrated sqlite database in a temp dir and returns a
// repository over it. The database is closed when the test ends.
func NewSQLite(t *testing.T) *repository.SQLRepository {
	t.Helper()

	path := filepath.Join(t.TempDir(), "polls.db")
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	applySchema(t, db)

	repo := repository.NewSQLRepositoryFromDB(repository.DriverSQLite, db, nil)
	t.Cleanup(repo.Close)
	return repo
}

func applySchema(t *testing.T, db *sql.DB) {
	t.Helper()

	dir, err := migrations.Dir(repository.DriverSQLite)
	require.NoError(t, err)

	entries, err := fs.ReadDir(dir, ".")
	require.NoError(t, err)

	var ups []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		body, err := fs.ReadFile(dir, name)
		require.NoError(t, err)
		_, err = db.Exec(string(body))
		require.NoError(t, err, "apply %s", name)
	}
}

// NewRedis starts an in-memory redis server for the test and returns it with
// a client connected to it. Both are closed when the test ends.
func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Clock returns a fixed time source, truncated to the precision the store keeps.
func Clock(now time.Time) func() time.Time {
	now = now.UTC().Truncate(time.Second)
	return func() time.Time { return now }
}

// QuestionText returns a random question.
func QuestionText() string {
	return strings.TrimSuffix(gofakeit.Question(), "?") + "?"
}

// ChoiceText returns a random short answer.
func ChoiceText() string {
	return gofakeit.Word()
}

// CreateQuestion inserts a question published at publishedAt with the given
// number of choices and returns the ids.
func CreateQuestion(t *testing.T, repo *repository.SQLRepository, publishedAt time.Time, choices int) (int64, []int64) {
	t.Helper()

	ctx := context.Background()
	qid, err := repo.CreateQuestion(ctx, QuestionText(), publishedAt)
	require.NoError(t, err)

	cids := make([]int64, 0, choices)
	for i := 0; i < choices; i++ {
		cid, err := repo.CreateChoice(ctx, qid, ChoiceText())
		require.NoError(t, err)
		cids = append(cids, cid)
	}
	return qid, cids
}

// VoteEvent builds an event the way the vote path does.
func VoteEvent(questionID, choiceID int64, votedAt time.Time) *model.VoteEvent {
	return &model.VoteEvent{
		ID:         gofakeit.UUID(),
		QuestionID: questionID,
		ChoiceID:   choiceID,
		VotedAt:    votedAt.UTC(),
	}
}
