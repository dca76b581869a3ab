// Package seed loads lessons, topics and questions from a JSON document
// into a store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/studyloop/internal/store"
	"github.com/abhisek/studyloop/internal/study"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "schema://studyloop/seed.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// Document is the seed file format.
type Document struct {
	Lessons []Lesson `json:"lessons"`
}

// Lesson is a lesson with its topics.
type Lesson struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Topics      []Topic `json:"topics"`
}

// Topic is a topic with its questions.
type Topic struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Question is a question as written in a seed file. Active defaults to
// true and a missing ID is filled with a UUID.
type Question struct {
	ID            string             `json:"id"`
	Difficulty    study.Difficulty   `json:"difficulty"`
	Kind          study.QuestionKind `json:"kind"`
	Prompt        string             `json:"prompt"`
	Options       []string           `json:"options"`
	CorrectAnswer study.Answer       `json:"correct_answer"`
	Hint          string             `json:"hint"`
	Explanation   string             `json:"explanation"`
	Tags          []string           `json:"tags"`
	Active        *bool              `json:"active"`
}

// Counts reports what Apply wrote.
type Counts struct {
	Lessons   int `json:"lessons"`
	Topics    int `json:"topics"`
	Questions int `json:"questions"`
}

// Load reads, validates and decodes a seed document.
func Load(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	if err := Validate(raw); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := doc.check(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks raw JSON against the seed schema.
func Validate(raw []byte) error {
	schema, err := seedSchema()
	if err != nil {
		return err
	}
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &study.ValidationError{Field: "seed", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := schema.Validate(parsed); err != nil {
		return &study.ValidationError{Field: "seed", Reason: err.Error()}
	}
	return nil
}

func seedSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("parse seed schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add seed schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// check enforces what the schema cannot express: choice indexes must
// point at an option.
func (d *Document) check() error {
	for _, l := range d.Lessons {
		for _, t := range l.Topics {
			for i, q := range t.Questions {
				a := q.CorrectAnswer
				if a.Type != study.AnswerIndex {
					continue
				}
				if a.Index < 0 || a.Index >= len(q.Options) {
					return &study.ValidationError{
						Field:  fmt.Sprintf("lessons[%s].topics[%s].questions[%d].correct_answer", l.ID, t.ID, i),
						Reason: fmt.Sprintf("index %d out of range for %d options", a.Index, len(q.Options)),
					}
				}
			}
		}
	}
	return nil
}

// Apply writes doc through the backend's seeder in one transaction.
// Records with existing IDs are replaced; question statistics survive.
func Apply(ctx context.Context, b store.Backend, doc *Document) (Counts, error) {
	var n Counts
	err := b.InTx(ctx, func(ctx context.Context, r store.Repos) error {
		n = Counts{}
		for _, l := range doc.Lessons {
			if err := r.Seeder.PutLesson(ctx, study.Lesson{ID: l.ID, Title: l.Title, Description: l.Description}); err != nil {
				return fmt.Errorf("put lesson %s: %w", l.ID, err)
			}
			n.Lessons++
			for _, t := range l.Topics {
				if err := r.Seeder.PutTopic(ctx, study.Topic{ID: t.ID, LessonID: l.ID, Title: t.Title}); err != nil {
					return fmt.Errorf("put topic %s: %w", t.ID, err)
				}
				n.Topics++
				for _, sq := range t.Questions {
					q := sq.toQuestion(l.ID, t.ID)
					if err := r.Seeder.PutQuestion(ctx, q); err != nil {
						return fmt.Errorf("put question %s: %w", q.ID, err)
					}
					n.Questions++
				}
			}
		}
		return nil
	})
	return n, err
}

func (sq Question) toQuestion(lessonID, topicID string) *study.Question {
	q := &study.Question{
		ID:            sq.ID,
		LessonID:      lessonID,
		TopicID:       topicID,
		Difficulty:    sq.Difficulty,
		Kind:          sq.Kind,
		Prompt:        sq.Prompt,
		Options:       sq.Options,
		CorrectAnswer: sq.CorrectAnswer,
		Hint:          sq.Hint,
		Explanation:   sq.Explanation,
		Tags:          sq.Tags,
		Active:        sq.Active == nil || *sq.Active,
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return q
}
