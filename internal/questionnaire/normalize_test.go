package questionnaire

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := Parse([]byte(`
version: 2
questions:
  - id: color
    kind: single_select
    options: ["Red", "Blue"]
    matchable: true
  - id: hobbies
    kind: multi_select
    options: ["Chess", "Running", "Baking"]
    matchable: true
  - id: bio
    kind: free_text
    matchable: true
`))
	require.NoError(t, err)
	return s
}

func TestNormalizeHappyPath(t *testing.T) {
	s := testSchema(t)
	userID := uuid.New()

	got, err := Normalize(s, userID, []SubmittedAnswer{
		{
			QuestionID:  "color",
			Answer:      AnswerValue{Kind: KindSingleSelect, Option: "Red"},
			Preference:  AnswerValue{Kind: KindSingleSelect, Option: "Blue"},
			Importance:  ImportanceImportant,
			Dealbreaker: true,
		},
		{
			QuestionID: "hobbies",
			Answer:     AnswerValue{Options: []string{"Chess", "Chess", "Baking"}}, // kind inferred, dups dropped
			Preference: AnswerValue{Kind: KindMultiSelect, Options: []string{"Running"}},
			Importance: ImportanceNice,
		},
	})
	require.NoError(t, err)
	require.Equal(t, userID, got.UserID)
	require.Equal(t, 2, got.SchemaVersion)
	require.Len(t, got.Answers, 2)

	color := got.Answers["color"]
	require.True(t, color.Dealbreaker)
	// Single-select preferences are stored as acceptance sets.
	require.Equal(t, KindMultiSelect, color.Preference.Kind)
	require.Equal(t, []string{"Blue"}, color.Preference.Options)

	hobbies := got.Answers["hobbies"]
	require.Equal(t, []string{"Chess", "Baking"}, hobbies.Answer.Options)
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	s := testSchema(t)
	userID := uuid.New()

	cases := []struct {
		name      string
		submitted []SubmittedAnswer
	}{
		{"unknown option", []SubmittedAnswer{{
			QuestionID: "color",
			Answer:     AnswerValue{Kind: KindSingleSelect, Option: "Green"},
		}}},
		{"kind mismatch", []SubmittedAnswer{{
			QuestionID: "color",
			Answer:     AnswerValue{Kind: KindMultiSelect, Options: []string{"Red"}},
		}}},
		{"duplicate question", []SubmittedAnswer{
			{QuestionID: "color", Answer: AnswerValue{Option: "Red"}},
			{QuestionID: "color", Answer: AnswerValue{Option: "Blue"}},
		}},
		{"importance out of range", []SubmittedAnswer{{
			QuestionID: "color",
			Answer:     AnswerValue{Option: "Red"},
			Importance: 7,
		}}},
		{"dealbreaker without preference", []SubmittedAnswer{{
			QuestionID:  "color",
			Answer:      AnswerValue{Option: "Red"},
			Importance:  ImportanceRequired,
			Dealbreaker: true,
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(s, userID, tc.submitted)
			require.Error(t, err)
		})
	}

	_, err := Normalize(s, uuid.Nil, nil)
	require.Error(t, err)
	_, err = Normalize(nil, userID, nil)
	require.Error(t, err)
}

func TestNormalizeDropsUnknownAndDisarmsFreeText(t *testing.T) {
	s := testSchema(t)

	got, err := Normalize(s, uuid.New(), []SubmittedAnswer{
		{QuestionID: "retired_question", Answer: AnswerValue{Kind: KindSingleSelect, Option: "Red"}},
		{
			QuestionID:  "bio",
			Answer:      AnswerValue{Kind: KindFreeText, Text: "long walks"},
			Importance:  ImportanceRequired,
			Dealbreaker: true,
		},
	})
	require.NoError(t, err)
	require.Len(t, got.Answers, 1)

	// Free text keeps its content but can never carry matching weight.
	bio := got.Answers["bio"]
	require.Equal(t, "long walks", bio.Answer.Text)
	require.Equal(t, ImportanceNone, bio.Importance)
	require.False(t, bio.Dealbreaker)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := testSchema(t)
	userID := uuid.New()

	original, err := Normalize(s, userID, []SubmittedAnswer{{
		QuestionID: "hobbies",
		Answer:     AnswerValue{Kind: KindMultiSelect, Options: []string{"Chess"}},
		Preference: AnswerValue{Kind: KindMultiSelect, Options: []string{"Running", "Baking"}},
		Importance: ImportanceImportant,
	}})
	require.NoError(t, err)

	raw, err := Encode(original)
	require.NoError(t, err)
	decoded, err := Decode(userID, s.Version, raw)
	require.NoError(t, err)
	require.Equal(t, original, decoded)

	_, err = Decode(userID, s.Version, []byte("{broken"))
	require.Error(t, err)
}

func TestParseRejectsInvalidSchemas(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"no version", "questions:\n  - id: a\n    kind: free_text\n"},
		{"no questions", "version: 1\n"},
		{"duplicate id", "version: 1\nquestions:\n  - id: a\n    kind: free_text\n  - id: a\n    kind: free_text\n"},
		{"select without options", "version: 1\nquestions:\n  - id: a\n    kind: single_select\n"},
		{"unknown kind", "version: 1\nquestions:\n  - id: a\n    kind: slider\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw))
			require.Error(t, err)
		})
	}
}

func TestDefaultSchemaIsValid(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, s.Questions)

	q, ok := s.Lookup("gender")
	require.True(t, ok)
	require.True(t, q.Scoreable())

	bio, ok := s.Lookup("about_me")
	require.True(t, ok)
	require.False(t, bio.Scoreable())
}
