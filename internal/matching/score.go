package matching

import (
	"sort"

	"github.com/yungbote/matchmaker-backend/internal/questionnaire"
)

// QuestionScore is the per-question contribution of a directional
// score, kept for explainability.
type QuestionScore struct {
	QuestionID string  `json:"question_id"`
	Weight     int     `json:"weight"`
	Fraction   float64 `json:"fraction"`
	Veto       bool    `json:"veto,omitempty"`
}

// Result is the outcome of scoring A against B. Total is normalized to
// 0..100 so scores stay comparable across users who skipped different
// optional questions. A dealbreaker violation vetoes the pair and
// floors Total to 0; the breakdown still records the raw fractions.
type Result struct {
	Total     float64
	Vetoed    bool
	Breakdown []QuestionScore
}

// Score computes A's directional compatibility with B. It is pure:
// identical inputs always yield an identical Result, so recomputation
// is idempotent. Question ids absent from the schema are ignored.
func Score(schema *questionnaire.Schema, a, b *questionnaire.NormalizedResponse) Result {
	ids := make([]string, 0, len(a.Answers))
	for id := range a.Answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var (
		sum         float64
		totalWeight int
		vetoed      bool
		breakdown   []QuestionScore
	)
	for _, id := range ids {
		q, ok := schema.Lookup(id)
		if !ok || !q.Scoreable() {
			continue
		}
		mine := a.Answers[id]
		theirs, answered := b.Answer(id)
		if !answered {
			continue
		}
		if mine.Importance == questionnaire.ImportanceNone || mine.Preference.Empty() {
			continue
		}

		fraction := matchFraction(mine.Preference, theirs.Answer)
		qs := QuestionScore{
			QuestionID: id,
			Weight:     mine.Importance,
			Fraction:   fraction,
		}
		if mine.Dealbreaker && fraction == 0 {
			qs.Veto = true
			vetoed = true
		}
		breakdown = append(breakdown, qs)

		sum += float64(mine.Importance) * fraction
		totalWeight += mine.Importance
	}

	res := Result{Breakdown: breakdown, Vetoed: vetoed}
	if vetoed || totalWeight == 0 {
		return res
	}
	res.Total = 100 * sum / float64(totalWeight)
	return res
}

// matchFraction is the share of A's acceptance set that B's answer
// satisfies: 0 or 1 for single answers, the overlap fraction for
// multi_select answers.
func matchFraction(preference, answer questionnaire.AnswerValue) float64 {
	accepted := preference.AcceptedOptions()
	if len(accepted) == 0 {
		return 0
	}
	acceptedSet := make(map[string]struct{}, len(accepted))
	for _, opt := range accepted {
		acceptedSet[opt] = struct{}{}
	}

	theirs := answer.AcceptedOptions()
	if len(theirs) == 0 {
		return 0
	}
	if answer.Kind == questionnaire.KindSingleSelect {
		if _, ok := acceptedSet[answer.Option]; ok {
			return 1
		}
		return 0
	}

	hits := 0
	for _, opt := range theirs {
		if _, ok := acceptedSet[opt]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(accepted))
}
