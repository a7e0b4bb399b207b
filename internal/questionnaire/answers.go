package questionnaire

import (
	"github.com/google/uuid"
)

// Importance weights run 0..3. Zero means "doesn't matter": the
// question contributes nothing and does not count toward the
// normalizing denominator.
const (
	ImportanceNone      = 0
	ImportanceNice      = 1
	ImportanceImportant = 2
	ImportanceRequired  = 3
)

// AnswerValue is a tagged union over the supported answer kinds. Only
// the field matching Kind is meaningful.
type AnswerValue struct {
	Kind    string   `json:"kind"`
	Option  string   `json:"option,omitempty"`
	Options []string `json:"options,omitempty"`
	Text    string   `json:"text,omitempty"`
}

func (v AnswerValue) Empty() bool {
	switch v.Kind {
	case KindSingleSelect:
		return v.Option == ""
	case KindMultiSelect:
		return len(v.Options) == 0
	case KindFreeText:
		return v.Text == ""
	}
	return true
}

// AcceptedOptions is the acceptance set an answer or preference value
// spans: a single_select value accepts its one option, a multi_select
// value accepts each selected option.
func (v AnswerValue) AcceptedOptions() []string {
	switch v.Kind {
	case KindSingleSelect:
		if v.Option == "" {
			return nil
		}
		return []string{v.Option}
	case KindMultiSelect:
		return v.Options
	}
	return nil
}

// NormalizedAnswer is one validated per-question record: what the user
// answered, what they want from a partner, and how much it matters.
type NormalizedAnswer struct {
	QuestionID  string      `json:"question_id"`
	Answer      AnswerValue `json:"answer"`
	Preference  AnswerValue `json:"preference,omitempty"`
	Importance  int         `json:"importance"`
	Dealbreaker bool        `json:"dealbreaker,omitempty"`
}

// NormalizedResponse is one user's full typed answer set, keyed by
// question id. Produced once at submission, read many times.
type NormalizedResponse struct {
	UserID        uuid.UUID                   `json:"user_id"`
	SchemaVersion int                         `json:"schema_version"`
	Answers       map[string]NormalizedAnswer `json:"answers"`
}

func (r *NormalizedResponse) Answer(questionID string) (NormalizedAnswer, bool) {
	a, ok := r.Answers[questionID]
	return a, ok
}
