package scoring

import (
	"encoding/json"
	"errors"
	"strings"
)

type shortAnswerContent struct {
	Answers         []string `json:"answers"`
	MaxEditDistance *int     `json:"maxEditDistance,omitempty"`
}

type TextDetail struct {
	Given   string `json:"given"`
	Correct bool   `json:"correct"`
	Close   bool   `json:"close,omitempty"`
}

// shortAnswerStrategy gives full credit for a normalized match and half
// credit for a match within maxEdit edits. Content may override maxEdit.
type shortAnswerStrategy struct{ maxEdit int }

func (s shortAnswerStrategy) Score(content, answers json.RawMessage) Result {
	var c shortAnswerContent
	var given string
	_ = json.Unmarshal(answers, &given)
	d := TextDetail{Given: given}
	if err := decode(content, &c); err != nil {
		return Result{Details: d}
	}
	resp := normalize(given)
	if resp == "" {
		return Result{Details: d}
	}
	maxEdit := s.maxEdit
	if c.MaxEditDistance != nil {
		maxEdit = *c.MaxEditDistance
	}

	for _, k := range c.Answers {
		if normalize(k) == resp {
			d.Correct = true
			return Result{Score: 100, Details: d}
		}
	}
	if maxEdit > 0 {
		for _, k := range c.Answers {
			if levenshtein(normalize(k), resp) <= maxEdit {
				d.Close = true
				return Result{Score: 50, Details: d}
			}
		}
	}
	return Result{Details: d}
}

func (shortAnswerStrategy) Validate(content json.RawMessage) error {
	var c shortAnswerContent
	if err := decode(content, &c); err != nil {
		return err
	}
	for _, a := range c.Answers {
		if strings.TrimSpace(a) != "" {
			if c.MaxEditDistance != nil && *c.MaxEditDistance < 0 {
				return errors.New("maxEditDistance must not be negative")
			}
			return nil
		}
	}
	return errors.New("answers: at least one accepted answer required")
}

func (shortAnswerStrategy) Redact(content json.RawMessage) (json.RawMessage, error) {
	var c shortAnswerContent
	if err := decode(content, &c); err != nil {
		return nil, err
	}
	return json.RawMessage(`{}`), nil
}
