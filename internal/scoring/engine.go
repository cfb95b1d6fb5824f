package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Type tags an exercise with the strategy that scores it.
type Type string

const (
	MultipleChoice Type = "multiple_choice"
	Ordering       Type = "ordering"
	Matching       Type = "matching"
	Numeric        Type = "numeric"
	ShortAnswer    Type = "short_answer"
)

var ErrUnsupportedType = errors.New("unsupported exercise type")

// Result is the outcome of scoring one submission.
type Result struct {
	Score   int `json:"score"`   // 0..100
	Details any `json:"details"` // strategy specific
}

// Strategy scores one exercise type. Implementations must be pure.
type Strategy interface {
	Score(content, answers json.RawMessage) Result
	// Validate is run when an exercise is written to the catalog.
	Validate(content json.RawMessage) error
	// Redact returns the content with answer keys removed.
	Redact(content json.RawMessage) (json.RawMessage, error)
}

// MessageDetail explains a zero score that is not about the answer itself.
type MessageDetail struct {
	Message string `json:"message"`
}

// CountDetail is used by strategies that score item by item.
type CountDetail struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Engine routes by exercise type to the correct Strategy.
type Engine struct {
	strategies map[Type]Strategy
}

// Engine options

type Option func(*config)

type config struct {
	MaxEditDistance int // default fuzziness for short_answer
	extra           map[Type]Strategy
}

func WithMaxEditDistance(n int) Option { return func(c *config) { c.MaxEditDistance = n } }

// WithStrategy installs or replaces the strategy for t.
func WithStrategy(t Type, s Strategy) Option {
	return func(c *config) {
		if c.extra == nil {
			c.extra = map[Type]Strategy{}
		}
		c.extra[t] = s
	}
}

// NewEngine installs built-in strategies.
func NewEngine(opts ...Option) *Engine {
	cfg := &config{MaxEditDistance: 1}
	for _, o := range opts {
		o(cfg)
	}
	e := &Engine{
		strategies: map[Type]Strategy{
			MultipleChoice: choiceStrategy{},
			Ordering:       orderingStrategy{},
			Matching:       matchingStrategy{},
			Numeric:        numericStrategy{},
			ShortAnswer:    shortAnswerStrategy{maxEdit: cfg.MaxEditDistance},
		},
	}
	for t, s := range cfg.extra {
		e.strategies[t] = s
	}
	return e
}

// Score never fails: unknown types and malformed answers score 0.
func (e *Engine) Score(t Type, content, answers json.RawMessage) Result {
	s, ok := e.strategies[t]
	if !ok {
		return Result{Details: MessageDetail{Message: fmt.Sprintf("exercise type %q not supported", t)}}
	}
	res := s.Score(content, answers)
	res.Score = clamp(res.Score)
	return res
}

func (e *Engine) Supports(t Type) bool {
	_, ok := e.strategies[t]
	return ok
}

// Types lists the supported tags in lexical order.
func (e *Engine) Types() []Type {
	out := make([]Type, 0, len(e.strategies))
	for t := range e.strategies {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (e *Engine) Validate(t Type, content json.RawMessage) error {
	s, ok := e.strategies[t]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, t)
	}
	return s.Validate(content)
}

// Redact returns nil for unknown types or unreadable content.
func (e *Engine) Redact(t Type, content json.RawMessage) json.RawMessage {
	s, ok := e.strategies[t]
	if !ok {
		return nil
	}
	out, err := s.Redact(content)
	if err != nil {
		return nil
	}
	return out
}

// helpers

// percent rounds half up, matching how scores have always been displayed.
func percent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(correct)/float64(total)*100 + 0.5))
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("empty content")
	}
	return json.Unmarshal(raw, v)
}

// toIndex accepts JSON numbers and numeric strings.
func toIndex(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// decodeIndexes reads a JSON array of indexes. Entries that are not
// integers are dropped; ok is false when answers is not an array.
func decodeIndexes(answers json.RawMessage) (out []int, ok bool) {
	var raw []any
	if err := json.Unmarshal(answers, &raw); err != nil {
		return nil, false
	}
	out = make([]int, 0, len(raw))
	for _, v := range raw {
		if n, ok := toIndex(v); ok {
			out = append(out, n)
		}
	}
	return out, true
}
