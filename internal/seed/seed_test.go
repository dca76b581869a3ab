package seed

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studyloop/internal/store"
	"github.com/abhisek/studyloop/internal/study"
)

func loadFixture(t *testing.T) *Document {
	t.Helper()
	f, err := os.Open("testdata/arithmetic.json")
	require.NoError(t, err)
	defer f.Close()

	doc, err := Load(f)
	require.NoError(t, err)
	return doc
}

func TestLoad(t *testing.T) {
	doc := loadFixture(t)
	require.Len(t, doc.Lessons, 1)
	topic := doc.Lessons[0].Topics[0]
	require.Len(t, topic.Questions, 4)

	assert.Equal(t, study.IndexAnswer(1), topic.Questions[0].CorrectAnswer)
	assert.Equal(t, study.TextAnswer("true"), topic.Questions[1].CorrectAnswer)
	assert.False(t, *topic.Questions[3].Active)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"missing lessons", `{}`},
		{"unknown field", `{"lessons": [], "extra": 1}`},
		{"bad difficulty", `{"lessons": [{"id": "l", "title": "L", "topics": [{"id": "t", "title": "T", "questions": [
			{"difficulty": "insane", "kind": "essay", "prompt": "?"}]}]}]}`},
		{"choice without options", `{"lessons": [{"id": "l", "title": "L", "topics": [{"id": "t", "title": "T", "questions": [
			{"difficulty": "easy", "kind": "multiple_choice", "prompt": "?", "correct_answer": 0}]}]}]}`},
		{"true false with text", `{"lessons": [{"id": "l", "title": "L", "topics": [{"id": "t", "title": "T", "questions": [
			{"difficulty": "easy", "kind": "true_false", "prompt": "?", "correct_answer": "maybe"}]}]}]}`},
		{"index out of range", `{"lessons": [{"id": "l", "title": "L", "topics": [{"id": "t", "title": "T", "questions": [
			{"difficulty": "easy", "kind": "multiple_choice", "prompt": "?", "options": ["a", "b"], "correct_answer": 2}]}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, study.IsValidation(err), "error %v is not a ValidationError", err)
		})
	}
}

func TestApply(t *testing.T) {
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	n, err := Apply(ctx, s, loadFixture(t))
	require.NoError(t, err)
	assert.Equal(t, Counts{Lessons: 1, Topics: 1, Questions: 4}, n)

	r := s.Repos()
	ok, err := r.Catalog.TopicExists(ctx, "arith", "add")
	require.NoError(t, err)
	assert.True(t, ok)

	qs, err := r.Questions.ListByTopic(ctx, "arith", "add")
	require.NoError(t, err)
	require.Len(t, qs, 4)

	var generated *study.Question
	for i := range qs {
		switch qs[i].ID {
		case "add-1", "add-2", "add-4":
		default:
			generated = &qs[i]
		}
	}
	require.NotNil(t, generated, "question without id was not assigned one")
	assert.Len(t, generated.ID, 36)
	assert.True(t, generated.Active)

	q, err := r.Questions.Get(ctx, "add-4")
	require.NoError(t, err)
	assert.False(t, q.Active)

	// Reapplying replaces content without duplicating identified questions.
	require.NoError(t, r.Questions.UpdateStats(ctx, "add-1", study.QuestionStats{UsageCount: 3, SuccessRate: 67, AvgSolveTime: 9}))
	_, err = Apply(ctx, s, loadFixture(t))
	require.NoError(t, err)
	q, err = r.Questions.Get(ctx, "add-1")
	require.NoError(t, err)
	assert.Equal(t, 3, q.Stats.UsageCount)
}
