package domain

import (
	"encoding/json"
	"fmt"
)

// Answer is a tagged union of the per-type submission shapes. Exactly
// the fields belonging to Type are populated; UnmarshalJSON enforces
// this so an ill-shaped payload fails validation instead of silently
// scoring as wrong.
type Answer struct {
	Type QuestionType

	OptionID  string      // single_choice, true_false ("true"/"false")
	OptionIDs []string    // multi_choice
	Text      string      // typed_text
	Pairs     []MatchPair // pair_matching
}

type answerJSON struct {
	Type      QuestionType `json:"type"`
	OptionID  string       `json:"optionId,omitempty"`
	OptionIDs []string     `json:"optionIds,omitempty"`
	Text      string       `json:"text,omitempty"`
	Pairs     []MatchPair  `json:"pairs,omitempty"`
}

func (a Answer) MarshalJSON() ([]byte, error) {
	return json.Marshal(answerJSON{
		Type:      a.Type,
		OptionID:  a.OptionID,
		OptionIDs: a.OptionIDs,
		Text:      a.Text,
		Pairs:     a.Pairs,
	})
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var raw answerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded := Answer{
		Type:      raw.Type,
		OptionID:  raw.OptionID,
		OptionIDs: raw.OptionIDs,
		Text:      raw.Text,
		Pairs:     raw.Pairs,
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*a = decoded
	return nil
}

// Validate checks that the populated fields match the declared type.
func (a Answer) Validate() error {
	switch a.Type {
	case TypeSingleChoice, TypeTrueFalse:
		if a.OptionID == "" || len(a.OptionIDs) > 0 || a.Text != "" || len(a.Pairs) > 0 {
			return fmt.Errorf("%w: %s requires optionId only", ErrInvalidAnswer, a.Type)
		}
	case TypeMultiChoice:
		if len(a.OptionIDs) == 0 || a.OptionID != "" || a.Text != "" || len(a.Pairs) > 0 {
			return fmt.Errorf("%w: %s requires optionIds only", ErrInvalidAnswer, a.Type)
		}
	case TypeTypedText:
		if a.Text == "" || a.OptionID != "" || len(a.OptionIDs) > 0 || len(a.Pairs) > 0 {
			return fmt.Errorf("%w: %s requires text only", ErrInvalidAnswer, a.Type)
		}
	case TypePairMatching:
		if len(a.Pairs) == 0 || a.OptionID != "" || len(a.OptionIDs) > 0 || a.Text != "" {
			return fmt.Errorf("%w: %s requires pairs only", ErrInvalidAnswer, a.Type)
		}
	default:
		return fmt.Errorf("%w: unknown answer type %q", ErrInvalidAnswer, a.Type)
	}
	return nil
}

// MatchesQuestion reports whether the answer's declared type matches q.
func (a Answer) MatchesQuestion(q Question) bool {
	return a.Type == q.Type
}
