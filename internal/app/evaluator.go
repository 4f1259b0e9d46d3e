package app

import (
	"sort"
	"strings"

	"live-quiz-service/internal/domain"
)

// Evaluate scores a submitted answer against a question. It is a pure
// function: no state, no clock, same inputs always give the same
// result. A nil answer (participant never submitted) is always wrong.
// The returned points are the delta to apply to the participant's
// score: Points when correct, -Penalty otherwise, never clamped.
func Evaluate(q domain.Question, a *domain.Answer) (bool, int) {
	correct := isCorrect(q, a)
	if correct {
		return true, q.Points
	}
	return false, -q.Penalty
}

func isCorrect(q domain.Question, a *domain.Answer) bool {
	if a == nil || a.Type != q.Type {
		return false
	}
	switch q.Type {
	case domain.TypeSingleChoice, domain.TypeTrueFalse:
		return len(q.CorrectOptionIDs) == 1 && a.OptionID == q.CorrectOptionIDs[0]
	case domain.TypeMultiChoice:
		return equalAsSets(a.OptionIDs, q.CorrectOptionIDs)
	case domain.TypeTypedText:
		return normalizeText(a.Text) == normalizeText(q.CorrectText)
	case domain.TypePairMatching:
		return equalAsSets(canonicalPairs(a.Pairs), canonicalPairs(q.CorrectPairs))
	}
	return false
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// equalAsSets compares two string slices as sets; order and duplicates
// are irrelevant.
func equalAsSets(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	as := dedupSorted(a)
	bs := dedupSorted(b)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func dedupSorted(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	n := 0
	for i, s := range out {
		if i == 0 || s != out[n-1] {
			out[n] = s
			n++
		}
	}
	return out[:n]
}

// canonicalPairs renders each pair as a single comparable string so
// pair sets can reuse the set comparison. The separator cannot appear
// in catalog content by construction (prompts/matches are plain text).
func canonicalPairs(pairs []domain.MatchPair) []string {
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.Prompt+"\x1f"+p.Match)
	}
	return out
}
