package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type matchingContent struct {
	Pairs []matchingPair `json:"pairs"`
}

type matchingPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// matchingView is what a learner sees: left values in order, right values
// sorted so their position does not give the pairing away.
type matchingView struct {
	Left    []string `json:"left"`
	Choices []string `json:"choices"`
}

// matchingStrategy receives {"<pair index>": "<right value>"}, or an array
// where the position is the pair index.
type matchingStrategy struct{}

func (matchingStrategy) Score(content, answers json.RawMessage) Result {
	var c matchingContent
	if err := decode(content, &c); err != nil {
		return Result{Details: CountDetail{}}
	}
	d := CountDetail{Total: len(c.Pairs)}
	given := decodeMatches(answers)
	for i, p := range c.Pairs {
		if v, ok := given[i]; ok && v == p.Right {
			d.Correct++
		}
	}
	return Result{Score: percent(d.Correct, d.Total), Details: d}
}

func decodeMatches(answers json.RawMessage) map[int]string {
	out := map[int]string{}
	var byKey map[string]any
	if err := json.Unmarshal(answers, &byKey); err == nil {
		for k, v := range byKey {
			i, err := strconv.Atoi(strings.TrimSpace(k))
			if err != nil {
				continue
			}
			if s, ok := v.(string); ok {
				out[i] = s
			}
		}
		return out
	}
	var byPos []any
	if err := json.Unmarshal(answers, &byPos); err == nil {
		for i, v := range byPos {
			if s, ok := v.(string); ok {
				out[i] = s
			}
		}
	}
	return out
}

func (matchingStrategy) Validate(content json.RawMessage) error {
	var c matchingContent
	if err := decode(content, &c); err != nil {
		return fmt.Errorf("pairs: %w", err)
	}
	if len(c.Pairs) == 0 {
		return errors.New("pairs: at least one pair required")
	}
	for i, p := range c.Pairs {
		if strings.TrimSpace(p.Left) == "" || strings.TrimSpace(p.Right) == "" {
			return fmt.Errorf("pairs[%d]: left and right are required", i)
		}
	}
	return nil
}

func (matchingStrategy) Redact(content json.RawMessage) (json.RawMessage, error) {
	var c matchingContent
	if err := decode(content, &c); err != nil {
		return nil, err
	}
	v := matchingView{
		Left:    make([]string, 0, len(c.Pairs)),
		Choices: make([]string, 0, len(c.Pairs)),
	}
	for _, p := range c.Pairs {
		v.Left = append(v.Left, p.Left)
		v.Choices = append(v.Choices, p.Right)
	}
	sort.Strings(v.Choices)
	return json.Marshal(v)
}
