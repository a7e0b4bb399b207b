package questionnaire

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// SubmittedAnswer is the wire shape of one answered question as it
// arrives from the questionnaire surface.
type SubmittedAnswer struct {
	QuestionID  string      `json:"question_id"`
	Answer      AnswerValue `json:"answer"`
	Preference  AnswerValue `json:"preference,omitempty"`
	Importance  int         `json:"importance"`
	Dealbreaker bool        `json:"dealbreaker,omitempty"`
}

// Normalize validates a submitted answer set against the schema and
// produces the typed response the scorer consumes. Validation happens
// exactly once here: downstream code never inspects untyped data.
// Question ids not present in the schema are dropped, not fatal.
func Normalize(schema *Schema, userID uuid.UUID, submitted []SubmittedAnswer) (*NormalizedResponse, error) {
	if schema == nil {
		return nil, fmt.Errorf("nil schema")
	}
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user id")
	}

	answers := make(map[string]NormalizedAnswer, len(submitted))
	for _, sub := range submitted {
		q, ok := schema.Lookup(sub.QuestionID)
		if !ok {
			continue
		}
		if _, dup := answers[q.ID]; dup {
			return nil, fmt.Errorf("question %q answered twice", q.ID)
		}

		norm := NormalizedAnswer{
			QuestionID:  q.ID,
			Importance:  sub.Importance,
			Dealbreaker: sub.Dealbreaker,
		}

		answer, err := normalizeValue(q, sub.Answer, "answer")
		if err != nil {
			return nil, err
		}
		norm.Answer = answer

		if q.Kind == KindFreeText {
			// Free text is never matchable: no preference, no weight.
			norm.Preference = AnswerValue{Kind: KindFreeText}
			norm.Importance = ImportanceNone
			norm.Dealbreaker = false
			answers[q.ID] = norm
			continue
		}

		if norm.Importance < ImportanceNone || norm.Importance > ImportanceRequired {
			return nil, fmt.Errorf("question %q importance %d out of range 0..3", q.ID, sub.Importance)
		}
		if !sub.Preference.Empty() {
			// Preferences are acceptance sets, so they are always
			// multi_select shaped even for single_select questions.
			pref, err := normalizePreference(q, sub.Preference)
			if err != nil {
				return nil, err
			}
			norm.Preference = pref
		}
		if norm.Dealbreaker && norm.Preference.Empty() {
			return nil, fmt.Errorf("question %q flagged dealbreaker without a stated preference", q.ID)
		}

		answers[q.ID] = norm
	}

	return &NormalizedResponse{
		UserID:        userID,
		SchemaVersion: schema.Version,
		Answers:       answers,
	}, nil
}

func normalizeValue(q Question, v AnswerValue, field string) (AnswerValue, error) {
	if v.Kind == "" {
		v.Kind = q.Kind
	}
	if v.Kind != q.Kind {
		return AnswerValue{}, fmt.Errorf("question %q %s kind %q does not match schema kind %q", q.ID, field, v.Kind, q.Kind)
	}
	switch q.Kind {
	case KindSingleSelect:
		if v.Option == "" {
			return AnswerValue{}, fmt.Errorf("question %q %s missing option", q.ID, field)
		}
		if !q.HasOption(v.Option) {
			return AnswerValue{}, fmt.Errorf("question %q %s option %q not in schema", q.ID, field, v.Option)
		}
		return AnswerValue{Kind: KindSingleSelect, Option: v.Option}, nil
	case KindMultiSelect:
		if len(v.Options) == 0 {
			return AnswerValue{}, fmt.Errorf("question %q %s missing options", q.ID, field)
		}
		out := make([]string, 0, len(v.Options))
		seen := make(map[string]struct{}, len(v.Options))
		for _, opt := range v.Options {
			if !q.HasOption(opt) {
				return AnswerValue{}, fmt.Errorf("question %q %s option %q not in schema", q.ID, field, opt)
			}
			if _, dup := seen[opt]; dup {
				continue
			}
			seen[opt] = struct{}{}
			out = append(out, opt)
		}
		return AnswerValue{Kind: KindMultiSelect, Options: out}, nil
	case KindFreeText:
		return AnswerValue{Kind: KindFreeText, Text: v.Text}, nil
	}
	return AnswerValue{}, fmt.Errorf("question %q has unknown kind %q", q.ID, q.Kind)
}

// normalizePreference accepts either shape and stores the acceptance
// set as a multi_select value.
func normalizePreference(q Question, v AnswerValue) (AnswerValue, error) {
	opts := v.AcceptedOptions()
	if len(opts) == 0 {
		return AnswerValue{}, fmt.Errorf("question %q preference has no options", q.ID)
	}
	out := make([]string, 0, len(opts))
	seen := make(map[string]struct{}, len(opts))
	for _, opt := range opts {
		if !q.HasOption(opt) {
			return AnswerValue{}, fmt.Errorf("question %q preference option %q not in schema", q.ID, opt)
		}
		if _, dup := seen[opt]; dup {
			continue
		}
		seen[opt] = struct{}{}
		out = append(out, opt)
	}
	return AnswerValue{Kind: KindMultiSelect, Options: out}, nil
}

// Decode parses a stored answers blob back into the typed map.
func Decode(userID uuid.UUID, schemaVersion int, raw []byte) (*NormalizedResponse, error) {
	var answers map[string]NormalizedAnswer
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return &NormalizedResponse{UserID: userID, SchemaVersion: schemaVersion, Answers: answers}, nil
}

// Encode serializes the typed answer map for storage.
func Encode(r *NormalizedResponse) ([]byte, error) {
	raw, err := json.Marshal(r.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	return raw, nil
}
