package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field names understood by Condition.
const (
	FieldHour        = "hour"
	FieldMinute      = "minute"
	FieldMinuteOfDay = "minute_of_day"
	FieldWeekday     = "weekday"
	FieldWinter      = "winter"
)

// Op is a comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpIn  Op = "in"
)

var knownOps = map[Op]struct{}{
	OpEq: {}, OpNe: {}, OpLt: {}, OpLte: {}, OpGt: {}, OpGte: {}, OpIn: {},
}

var knownFields = map[string]struct{}{
	FieldHour: {}, FieldMinute: {}, FieldMinuteOfDay: {}, FieldWeekday: {}, FieldWinter: {},
}

// Context is the input every condition is evaluated against.
type Context struct {
	Hour    int
	Minute  int
	Weekday time.Weekday
	Winter  bool
}

// ContextAt builds a Context from a wall-clock time.
func ContextAt(now time.Time, winter bool) Context {
	return Context{
		Hour:    now.Hour(),
		Minute:  now.Minute(),
		Weekday: now.Weekday(),
		Winter:  winter,
	}
}

// Predicate reports whether a rule holds for a context.
type Predicate interface {
	Match(Context) bool
}

// Func adapts a closure to Predicate.
type Func func(Context) bool

// Match implements Predicate.
func (f Func) Match(ctx Context) bool {
	if f == nil {
		return true
	}
	return f(ctx)
}

// Condition is a serializable boolean expression. A leaf compares Field
// against Value with Op; All, Any and Not combine children. An empty
// Condition matches everything.
type Condition struct {
	Field string      `toml:"field,omitempty" yaml:"field,omitempty" json:"field,omitempty"`
	Op    Op          `toml:"op,omitempty" yaml:"op,omitempty" json:"op,omitempty"`
	Value any         `toml:"value,omitempty" yaml:"value,omitempty" json:"value,omitempty"`
	All   []Condition `toml:"all,omitempty" yaml:"all,omitempty" json:"all,omitempty"`
	Any   []Condition `toml:"any,omitempty" yaml:"any,omitempty" json:"any,omitempty"`
	Not   *Condition  `toml:"not,omitempty" yaml:"not,omitempty" json:"not,omitempty"`
}

// Match implements Predicate. A nil condition always matches.
func (c *Condition) Match(ctx Context) bool {
	if c == nil {
		return true
	}
	return Evaluate(*c, ctx)
}

// Evaluate returns the result of cond for ctx. Malformed leaves evaluate to
// false; use Validate to reject them at load time.
func Evaluate(cond Condition, ctx Context) bool {
	for _, child := range cond.All {
		if !Evaluate(child, ctx) {
			return false
		}
	}
	if len(cond.Any) > 0 {
		matched := false
		for _, child := range cond.Any {
			if Evaluate(child, ctx) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if cond.Not != nil && Evaluate(*cond.Not, ctx) {
		return false
	}
	if strings.TrimSpace(cond.Field) == "" {
		return true
	}
	return evaluateLeaf(cond, ctx)
}

func evaluateLeaf(cond Condition, ctx Context) bool {
	field := strings.ToLower(strings.TrimSpace(cond.Field))
	if field == FieldWinter {
		want, ok := toBool(cond.Value)
		if !ok {
			return false
		}
		switch cond.Op {
		case OpEq, "":
			return ctx.Winter == want
		case OpNe:
			return ctx.Winter != want
		default:
			return false
		}
	}

	actual, ok := fieldValue(field, ctx)
	if !ok {
		return false
	}
	if cond.Op == OpIn {
		values, ok := toIntList(cond.Value)
		if !ok {
			return false
		}
		for _, v := range values {
			if v == actual {
				return true
			}
		}
		return false
	}
	want, ok := toInt(cond.Value)
	if !ok {
		return false
	}
	switch cond.Op {
	case OpEq, "":
		return actual == want
	case OpNe:
		return actual != want
	case OpLt:
		return actual < want
	case OpLte:
		return actual <= want
	case OpGt:
		return actual > want
	case OpGte:
		return actual >= want
	default:
		return false
	}
}

func fieldValue(field string, ctx Context) (int, bool) {
	switch field {
	case FieldHour:
		return ctx.Hour, true
	case FieldMinute:
		return ctx.Minute, true
	case FieldMinuteOfDay:
		return ctx.Hour*60 + ctx.Minute, true
	case FieldWeekday:
		return int(ctx.Weekday), true
	default:
		return 0, false
	}
}

// Validate checks that every leaf names a known field and operator and
// carries a value of the right shape.
func Validate(cond Condition) error {
	for i, child := range cond.All {
		if err := Validate(child); err != nil {
			return fmt.Errorf("all[%d]: %w", i, err)
		}
	}
	for i, child := range cond.Any {
		if err := Validate(child); err != nil {
			return fmt.Errorf("any[%d]: %w", i, err)
		}
	}
	if cond.Not != nil {
		if err := Validate(*cond.Not); err != nil {
			return fmt.Errorf("not: %w", err)
		}
	}
	field := strings.ToLower(strings.TrimSpace(cond.Field))
	if field == "" {
		if cond.Op != "" || cond.Value != nil {
			return fmt.Errorf("op/value set without field")
		}
		return nil
	}
	if _, ok := knownFields[field]; !ok {
		return fmt.Errorf("unknown field %q", cond.Field)
	}
	if cond.Op != "" {
		if _, ok := knownOps[cond.Op]; !ok {
			return fmt.Errorf("unknown op %q", cond.Op)
		}
	}
	if field == FieldWinter {
		if _, ok := toBool(cond.Value); !ok {
			return fmt.Errorf("winter requires a boolean value")
		}
		if cond.Op != "" && cond.Op != OpEq && cond.Op != OpNe {
			return fmt.Errorf("winter supports only eq/ne")
		}
		return nil
	}
	if cond.Op == OpIn {
		if _, ok := toIntList(cond.Value); !ok {
			return fmt.Errorf("%s in requires a list of integers", field)
		}
		return nil
	}
	if _, ok := toInt(cond.Value); !ok {
		return fmt.Errorf("%s requires an integer value", field)
	}
	return nil
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case int32:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func toIntList(value any) ([]int, bool) {
	switch v := value.(type) {
	case []int:
		return v, true
	case []any:
		out := make([]int, 0, len(v))
		for _, item := range v {
			n, ok := toInt(item)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	default:
		return nil, false
	}
}

func toBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, false
		}
		return b, true
	default:
		return false, false
	}
}
