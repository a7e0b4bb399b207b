package matching

import (
	"sort"

	"github.com/google/uuid"
)

// DirectionalScore is one (source, target, score) triple as read from
// the score ledger.
type DirectionalScore struct {
	UserID       uuid.UUID
	TargetUserID uuid.UUID
	Score        float64
	Vetoed       bool
}

// Pairing is one symmetric algorithmic match. UserA is always the
// lexicographically smaller id so a logical pair has one canonical
// form.
type Pairing struct {
	UserA    uuid.UUID
	UserB    uuid.UUID
	Combined float64
}

type candidatePair struct {
	a, b     uuid.UUID
	combined float64
}

// Pair builds a deterministic one-to-one pairing from the directional
// score matrix. Candidate pairs need both directions present and
// neither vetoed; they are taken greedily by combined score
// descending, ties broken by user id ascending, and each user appears
// in at most one pairing. Empty input yields no pairings, never an
// error.
func Pair(scores []DirectionalScore) []Pairing {
	type key struct{ a, b uuid.UUID }
	forward := make(map[key]DirectionalScore, len(scores))
	for _, s := range scores {
		if s.UserID == s.TargetUserID {
			continue
		}
		forward[key{s.UserID, s.TargetUserID}] = s
	}

	seen := make(map[key]struct{}, len(forward))
	candidates := make([]candidatePair, 0, len(forward)/2)
	for k := range forward {
		a, b := k.a, k.b
		if b.String() < a.String() {
			a, b = b, a
		}
		ck := key{a, b}
		if _, dup := seen[ck]; dup {
			continue
		}
		seen[ck] = struct{}{}

		fwd, okF := forward[key{a, b}]
		rev, okR := forward[key{b, a}]
		if !okF || !okR || fwd.Vetoed || rev.Vetoed {
			continue
		}
		candidates = append(candidates, candidatePair{a: a, b: b, combined: fwd.Score + rev.Score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].combined != candidates[j].combined {
			return candidates[i].combined > candidates[j].combined
		}
		if candidates[i].a != candidates[j].a {
			return candidates[i].a.String() < candidates[j].a.String()
		}
		return candidates[i].b.String() < candidates[j].b.String()
	})

	taken := make(map[uuid.UUID]struct{})
	out := make([]Pairing, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := taken[c.a]; ok {
			continue
		}
		if _, ok := taken[c.b]; ok {
			continue
		}
		taken[c.a] = struct{}{}
		taken[c.b] = struct{}{}
		out = append(out, Pairing{UserA: c.a, UserB: c.b, Combined: c.combined})
	}
	return out
}
