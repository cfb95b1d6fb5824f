package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
)

type orderingContent struct {
	Items []orderingItem `json:"items"`
}

type orderingItem struct {
	Text     string `json:"text"`
	Position int    `json:"position,omitempty"` // 1-based target
}

// orderingStrategy receives the learner's order as indexes into items.
type orderingStrategy struct{}

func (orderingStrategy) Score(content, answers json.RawMessage) Result {
	var c orderingContent
	if err := decode(content, &c); err != nil {
		return Result{Details: CountDetail{}}
	}
	d := CountDetail{Total: len(c.Items)}
	order, _ := decodeIndexes(answers)
	for p, idx := range order {
		if idx < 0 || idx >= len(c.Items) {
			continue
		}
		if c.Items[idx].Position == p+1 {
			d.Correct++
		}
	}
	return Result{Score: percent(d.Correct, d.Total), Details: d}
}

func (orderingStrategy) Validate(content json.RawMessage) error {
	var c orderingContent
	if err := decode(content, &c); err != nil {
		return fmt.Errorf("items: %w", err)
	}
	if len(c.Items) < 2 {
		return errors.New("items: at least two items required")
	}
	seen := make(map[int]bool, len(c.Items))
	for i, it := range c.Items {
		if it.Position < 1 || it.Position > len(c.Items) {
			return fmt.Errorf("items[%d]: position must be between 1 and %d", i, len(c.Items))
		}
		if seen[it.Position] {
			return fmt.Errorf("items[%d]: duplicate position %d", i, it.Position)
		}
		seen[it.Position] = true
	}
	return nil
}

func (orderingStrategy) Redact(content json.RawMessage) (json.RawMessage, error) {
	var c orderingContent
	if err := decode(content, &c); err != nil {
		return nil, err
	}
	for i := range c.Items {
		c.Items[i].Position = 0
	}
	return json.Marshal(c)
}
