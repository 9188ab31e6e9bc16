// Package visibility decides which questions are visible to ordinary
// listing, detail, results and vote requests.
//
// A question is visible once its publication time has passed. Future-dated
// questions behave as if they do not exist.
package visibility

import (
	"sort"
	"time"

	"github.com/lvdashuaibi/littlepoll/internal/model"
)

// IsPublished reports whether q is visible at now. The boundary is inclusive.
func IsPublished(q model.Question, now time.Time) bool {
	return !q.PublishedAt.After(now)
}

// Latest returns the questions published at or before now, newest first.
// A limit <= 0 means no limit. The result is never nil.
func Latest(now time.Time, questions []model.Question, limit int) []model.Question {
	published := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		if IsPublished(q, now) {
			published = append(published, q)
		}
	}

	// ties on PublishedAt are broken by id so the order is stable across stores
	sort.SliceStable(published, func(i, j int) bool {
		if !published[i].PublishedAt.Equal(published[j].PublishedAt) {
			return published[i].PublishedAt.After(published[j].PublishedAt)
		}
		return published[i].ID > published[j].ID
	})

	if limit > 0 && len(published) > limit {
		published = published[:limit]
	}
	return published
}

// Exclude drops the question with the given id, preserving order.
func Exclude(questions []model.Question, id int64) []model.Question {
	out := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		if q.ID != id {
			out = append(out, q)
		}
	}
	return out
}
