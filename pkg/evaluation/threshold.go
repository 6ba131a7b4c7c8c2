package evaluation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Threshold is one acceptance bound for a metric. It is either a literal
// value or a symbolic expression over the computed baseline, e.g.
// "baseline", "baseline + 0.05" or "baseline * 1.1". Expressions are
// resolved against the metric's baseline before comparison.
type Threshold struct {
	Value float64
	Expr  string
}

// Num builds a literal threshold.
func Num(v float64) Threshold { return Threshold{Value: v} }

// Expr builds a symbolic threshold.
func Expr(s string) Threshold { return Threshold{Expr: s} }

func (t *Threshold) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		t.Value = num
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("threshold must be a number or expression string")
	}
	t.Expr = s
	return nil
}

func (t Threshold) MarshalJSON() ([]byte, error) {
	if t.Expr != "" {
		return json.Marshal(t.Expr)
	}
	return json.Marshal(t.Value)
}

func (t *Threshold) UnmarshalYAML(node *yaml.Node) error {
	var num float64
	if err := node.Decode(&num); err == nil {
		t.Value = num
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("threshold must be a number or expression string")
	}
	t.Expr = s
	return nil
}

// Resolve evaluates the threshold against a baseline value. Supported
// grammar: a literal number, the token "baseline", or "baseline <op> <num>"
// with op in + - * /.
func (t Threshold) Resolve(baseline float64, hasBaseline bool) (float64, error) {
	if t.Expr == "" {
		return t.Value, nil
	}
	expr := strings.TrimSpace(strings.ToLower(t.Expr))
	if !strings.Contains(expr, "baseline") {
		v, err := strconv.ParseFloat(expr, 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable threshold expression %q", t.Expr)
		}
		return v, nil
	}
	if !hasBaseline {
		return 0, fmt.Errorf("threshold %q references a baseline the gate did not compute", t.Expr)
	}
	if expr == "baseline" {
		return baseline, nil
	}

	rest := strings.TrimSpace(strings.TrimPrefix(expr, "baseline"))
	if len(rest) < 2 {
		return 0, fmt.Errorf("unparseable threshold expression %q", t.Expr)
	}
	op := rest[0]
	operand, err := strconv.ParseFloat(strings.TrimSpace(rest[1:]), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable threshold expression %q", t.Expr)
	}
	switch op {
	case '+':
		return baseline + operand, nil
	case '-':
		return baseline - operand, nil
	case '*':
		return baseline * operand, nil
	case '/':
		if operand == 0 {
			return 0, fmt.Errorf("threshold %q divides by zero", t.Expr)
		}
		return baseline / operand, nil
	default:
		return 0, fmt.Errorf("unsupported operator %q in threshold %q", string(op), t.Expr)
	}
}

// errorMetrics pass when the value is at or below the threshold; everything
// else passes at or above.
var errorMetrics = map[string]bool{
	"rmse": true,
	"mae":  true,
	"mse":  true,
	"mape": true,
}

// passes applies the direction-aware comparison for one metric.
func passes(metric string, value, threshold float64) bool {
	if errorMetrics[strings.ToLower(metric)] {
		return value <= threshold
	}
	return value >= threshold
}
