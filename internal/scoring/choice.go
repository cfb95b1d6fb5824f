package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
)

type choiceContent struct {
	Options []choiceOption `json:"options"`
}

type choiceOption struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct,omitempty"`
}

// ChoiceDetail reports a multiple_choice submission.
type ChoiceDetail struct {
	Correct       int `json:"correct"`
	Total         int `json:"total"`
	WrongSelected int `json:"wrongSelected"`
}

// choiceStrategy nets wrong selections against right ones:
// round(max(0, (correct-wrongSelected)/total) * 100).
type choiceStrategy struct{}

func (choiceStrategy) Score(content, answers json.RawMessage) Result {
	var c choiceContent
	if err := decode(content, &c); err != nil {
		return Result{Details: ChoiceDetail{}}
	}
	d := ChoiceDetail{}
	for _, o := range c.Options {
		if o.Correct {
			d.Total++
		}
	}
	selected, _ := decodeIndexes(answers)
	seen := make(map[int]struct{}, len(selected))
	for _, i := range selected {
		if i < 0 || i >= len(c.Options) {
			continue
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		if c.Options[i].Correct {
			d.Correct++
		} else {
			d.WrongSelected++
		}
	}
	net := d.Correct - d.WrongSelected
	if d.Total == 0 || net <= 0 {
		return Result{Details: d}
	}
	return Result{Score: percent(net, d.Total), Details: d}
}

func (choiceStrategy) Validate(content json.RawMessage) error {
	var c choiceContent
	if err := decode(content, &c); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	if len(c.Options) < 2 {
		return errors.New("options: at least two options required")
	}
	for _, o := range c.Options {
		if o.Correct {
			return nil
		}
	}
	return errors.New("options: at least one option must be correct")
}

func (choiceStrategy) Redact(content json.RawMessage) (json.RawMessage, error) {
	var c choiceContent
	if err := decode(content, &c); err != nil {
		return nil, err
	}
	for i := range c.Options {
		c.Options[i].Correct = false
	}
	return json.Marshal(c)
}
