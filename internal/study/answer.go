package study

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AnswerType tags which variant of Answer is populated.
type AnswerType string

const (
	AnswerNone  AnswerType = ""
	AnswerText  AnswerType = "text"
	AnswerIndex AnswerType = "index"
)

// Answer is either free text or a numeric option index. Both the
// correct answer of a question and a learner's submission use it.
type Answer struct {
	Type  AnswerType
	Text  string
	Index int
}

// TextAnswer returns a text answer.
func TextAnswer(s string) Answer { return Answer{Type: AnswerText, Text: s} }

// IndexAnswer returns an option-index answer.
func IndexAnswer(i int) Answer { return Answer{Type: AnswerIndex, Index: i} }

// IsZero reports whether no answer was given.
func (a Answer) IsZero() bool { return a.Type == AnswerNone }

// String coerces the answer to text. An index renders as its decimal form.
func (a Answer) String() string {
	switch a.Type {
	case AnswerText:
		return a.Text
	case AnswerIndex:
		return strconv.Itoa(a.Index)
	}
	return ""
}

// Equal is exact, type-sensitive equality: IndexAnswer(1) never equals
// TextAnswer("1").
func (a Answer) Equal(b Answer) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case AnswerText:
		return a.Text == b.Text
	case AnswerIndex:
		return a.Index == b.Index
	}
	return true
}

// MarshalJSON encodes text as a JSON string and an index as a JSON number.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Type {
	case AnswerText:
		return json.Marshal(a.Text)
	case AnswerIndex:
		return json.Marshal(a.Index)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts a string, an integer or a boolean. Booleans
// become text so true/false questions can be answered with either form.
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Answer{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode text answer: %w", err)
		}
		*a = TextAnswer(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("decode boolean answer: %w", err)
		}
		*a = TextAnswer(strconv.FormatBool(b))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decode index answer: %w", err)
		}
		i, err := strconv.Atoi(n.String())
		if err != nil {
			return &ValidationError{Field: "answer", Reason: fmt.Sprintf("index must be an integer, got %s", n)}
		}
		*a = IndexAnswer(i)
	}
	return nil
}

// Verdict is the outcome of grading a single submission.
type Verdict struct {
	Correct bool
	// Graded is false for kinds that need a human reviewer.
	Graded bool
}

// Grade checks selected against the question's correct answer.
//
// Rules by kind:
//   - multiple_choice: exact, type-sensitive equality
//   - true_false: case-insensitive comparison of the string forms
//   - fill_blank: whitespace-normalized, case-insensitive text comparison;
//     an index on either side is resolved to the option text first
//   - essay: never auto-graded
func Grade(q *Question, selected Answer) Verdict {
	switch q.Kind {
	case KindMultipleChoice:
		return Verdict{Correct: selected.Equal(q.CorrectAnswer), Graded: true}
	case KindTrueFalse:
		return Verdict{
			Correct: strings.ToLower(selected.String()) == strings.ToLower(q.CorrectAnswer.String()),
			Graded:  true,
		}
	case KindFillBlank:
		want := normalizeText(q.resolve(q.CorrectAnswer))
		got := normalizeText(q.resolve(selected))
		return Verdict{Correct: want != "" && got == want, Graded: true}
	}
	return Verdict{}
}

// resolve maps an index answer to the option text it points at.
func (q *Question) resolve(a Answer) string {
	if a.Type == AnswerIndex && a.Index >= 0 && a.Index < len(q.Options) {
		return q.Options[a.Index]
	}
	return a.String()
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
