package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAnswerUnmarshalValidShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Answer
	}{
		{
			"single choice",
			`{"type":"single_choice","optionId":"o2"}`,
			Answer{Type: TypeSingleChoice, OptionID: "o2"},
		},
		{
			"true false",
			`{"type":"true_false","optionId":"true"}`,
			Answer{Type: TypeTrueFalse, OptionID: "true"},
		},
		{
			"multi choice",
			`{"type":"multi_choice","optionIds":["a","b"]}`,
			Answer{Type: TypeMultiChoice, OptionIDs: []string{"a", "b"}},
		},
		{
			"typed text",
			`{"type":"typed_text","text":"everest"}`,
			Answer{Type: TypeTypedText, Text: "everest"},
		},
		{
			"pair matching",
			`{"type":"pair_matching","pairs":[{"prompt":"France","match":"Paris"}]}`,
			Answer{Type: TypePairMatching, Pairs: []MatchPair{{Prompt: "France", Match: "Paris"}}},
		},
	}
	for _, tc := range cases {
		var a Answer
		if err := json.Unmarshal([]byte(tc.raw), &a); err != nil {
			t.Fatalf("%s: unmarshal: %v", tc.name, err)
		}
		if a.Type != tc.want.Type || a.OptionID != tc.want.OptionID || a.Text != tc.want.Text {
			t.Fatalf("%s: got %+v want %+v", tc.name, a, tc.want)
		}
	}
}

func TestAnswerUnmarshalRejectsMismatchedShapes(t *testing.T) {
	cases := []string{
		`{"type":"single_choice","text":"four"}`,                 // wrong field
		`{"type":"single_choice","optionId":"o1","text":"four"}`, // extra field
		`{"type":"multi_choice","optionId":"o1"}`,                // wrong field
		`{"type":"typed_text"}`,                                  // missing field
		`{"type":"pair_matching","optionIds":["a"]}`,             // wrong field
		`{"type":"ranking","optionId":"o1"}`,                     // unknown type
	}
	for _, raw := range cases {
		var a Answer
		err := json.Unmarshal([]byte(raw), &a)
		if !errors.Is(err, ErrInvalidAnswer) {
			t.Fatalf("expected ErrInvalidAnswer for %s, got %v", raw, err)
		}
	}
}

func TestAnswerRoundTrip(t *testing.T) {
	in := Answer{Type: TypeMultiChoice, OptionIDs: []string{"a", "c"}}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Answer
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Type != in.Type || len(out.OptionIDs) != 2 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}
