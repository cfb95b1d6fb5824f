package scoring

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// slack absorbs binary float error at the tolerance boundary
// (|0.3-0.4| is 0.10000000000000003).
const slack = 1e-9

type numericContent struct {
	Answer    *float64 `json:"answer"`
	Tolerance float64  `json:"tolerance,omitempty"`
}

// UnmarshalJSON also accepts answer and tolerance written as strings.
func (c *numericContent) UnmarshalJSON(b []byte) error {
	var raw struct {
		Answer    any `json:"answer"`
		Tolerance any `json:"tolerance"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Answer != nil {
		v, ok := toFloat(raw.Answer)
		if !ok {
			return errors.New("answer must be numeric")
		}
		c.Answer = &v
	}
	if raw.Tolerance != nil {
		v, ok := toFloat(raw.Tolerance)
		if !ok {
			return errors.New("tolerance must be numeric")
		}
		c.Tolerance = v
	}
	return nil
}

// NumericDetail reports a numeric submission. Given holds the raw value when
// it could not be parsed.
type NumericDetail struct {
	Expected  *float64 `json:"expected,omitempty"`
	Given     any      `json:"given"`
	Tolerance float64  `json:"tolerance"`
	Correct   bool     `json:"correct"`
}

// numericStrategy is all-or-nothing: 100 within tolerance (inclusive).
type numericStrategy struct{}

func (numericStrategy) Score(content, answers json.RawMessage) Result {
	var c numericContent
	var raw any
	_ = json.Unmarshal(answers, &raw)
	if err := decode(content, &c); err != nil || c.Answer == nil {
		return Result{Details: NumericDetail{Given: raw}}
	}
	tol := math.Max(c.Tolerance, 0)
	d := NumericDetail{Expected: c.Answer, Given: raw, Tolerance: tol}

	given, ok := toFloat(raw)
	if !ok {
		return Result{Details: d}
	}
	d.Given = given
	if math.Abs(*c.Answer-given) <= tol+slack {
		d.Correct = true
		return Result{Score: 100, Details: d}
	}
	return Result{Details: d}
}

func (numericStrategy) Validate(content json.RawMessage) error {
	var c numericContent
	if err := decode(content, &c); err != nil {
		return err
	}
	if c.Answer == nil {
		return errors.New("answer is required")
	}
	if c.Tolerance < 0 {
		return errors.New("tolerance must not be negative")
	}
	return nil
}

func (numericStrategy) Redact(content json.RawMessage) (json.RawMessage, error) {
	var c numericContent
	if err := decode(content, &c); err != nil {
		return nil, err
	}
	return json.RawMessage(`{}`), nil
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case string:
		return parseFloatLoose(t)
	default:
		return 0, false
	}
}

// parseFloatLoose accepts "10.4", " 10.4 ", "10,4" and "10.4 cm".
func parseFloatLoose(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if sp := strings.Fields(s); len(sp) > 0 {
		s = sp[0]
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
