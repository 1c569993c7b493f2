package rules_test

import (
	"testing"
	"time"

	"punchout/internal/rules"
)

func TestEvaluateLeaves(t *testing.T) {
	ctx := rules.Context{Hour: 6, Minute: 45, Weekday: time.Monday, Winter: true}

	tests := []struct {
		name string
		cond rules.Condition
		want bool
	}{
		{name: "empty matches", cond: rules.Condition{}, want: true},
		{name: "hour lt", cond: rules.Condition{Field: "hour", Op: rules.OpLt, Value: int64(7)}, want: true},
		{name: "hour gte", cond: rules.Condition{Field: "hour", Op: rules.OpGte, Value: 7}, want: false},
		{name: "minute of day", cond: rules.Condition{Field: "minute_of_day", Op: rules.OpEq, Value: 405}, want: true},
		{name: "weekday in", cond: rules.Condition{Field: "weekday", Op: rules.OpIn, Value: []any{int64(1), int64(2)}}, want: true},
		{name: "weekday not in", cond: rules.Condition{Field: "weekday", Op: rules.OpIn, Value: []any{6, 0}}, want: false},
		{name: "winter eq", cond: rules.Condition{Field: "winter", Op: rules.OpEq, Value: true}, want: true},
		{name: "winter ne", cond: rules.Condition{Field: "winter", Op: rules.OpNe, Value: true}, want: false},
		{name: "unknown field", cond: rules.Condition{Field: "moon", Op: rules.OpEq, Value: 1}, want: false},
		{name: "bad value", cond: rules.Condition{Field: "hour", Op: rules.OpEq, Value: "x"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rules.Evaluate(tt.cond, ctx); got != tt.want {
				t.Fatalf("Evaluate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateCombinators(t *testing.T) {
	winterMorning := rules.Condition{
		All: []rules.Condition{
			{Field: "winter", Op: rules.OpEq, Value: true},
			{Any: []rules.Condition{
				{Field: "hour", Op: rules.OpLt, Value: 8},
				{Field: "weekday", Op: rules.OpIn, Value: []any{0, 6}},
			}},
		},
		Not: &rules.Condition{Field: "minute", Op: rules.OpEq, Value: 59},
	}

	if !rules.Evaluate(winterMorning, rules.Context{Hour: 7, Winter: true, Weekday: time.Tuesday}) {
		t.Fatal("expected winter morning to match")
	}
	if rules.Evaluate(winterMorning, rules.Context{Hour: 7, Winter: false}) {
		t.Fatal("expected summer to fail All")
	}
	if rules.Evaluate(winterMorning, rules.Context{Hour: 12, Winter: true, Weekday: time.Tuesday}) {
		t.Fatal("expected midday weekday to fail Any")
	}
	if !rules.Evaluate(winterMorning, rules.Context{Hour: 12, Winter: true, Weekday: time.Saturday}) {
		t.Fatal("expected weekend midday to match through Any")
	}
	if rules.Evaluate(winterMorning, rules.Context{Hour: 7, Minute: 59, Winter: true}) {
		t.Fatal("expected Not to exclude minute 59")
	}
}

func TestNilConditionAndFuncMatch(t *testing.T) {
	var cond *rules.Condition
	if !cond.Match(rules.Context{}) {
		t.Fatal("nil condition should match")
	}
	var pred rules.Predicate = rules.Func(func(ctx rules.Context) bool { return ctx.Hour > 20 })
	if pred.Match(rules.Context{Hour: 10}) {
		t.Fatal("closure predicate should not match at 10")
	}
	if !pred.Match(rules.Context{Hour: 22}) {
		t.Fatal("closure predicate should match at 22")
	}
}

func TestValidate(t *testing.T) {
	valid := rules.Condition{All: []rules.Condition{
		{Field: "hour", Op: rules.OpGte, Value: 6},
		{Field: "winter", Value: true},
		{Field: "weekday", Op: rules.OpIn, Value: []any{1, 2, 3}},
	}}
	if err := rules.Validate(valid); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	invalid := []rules.Condition{
		{Field: "season", Op: rules.OpEq, Value: 1},
		{Field: "hour", Op: "between", Value: 1},
		{Field: "hour", Op: rules.OpIn, Value: 3},
		{Field: "winter", Op: rules.OpLt, Value: true},
		{Op: rules.OpEq, Value: 1},
		{Any: []rules.Condition{{Field: "hour", Value: "soon"}}},
	}
	for i, cond := range invalid {
		if err := rules.Validate(cond); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestContextAt(t *testing.T) {
	now := time.Date(2026, 1, 10, 5, 30, 0, 0, time.UTC)
	ctx := rules.ContextAt(now, true)
	if ctx.Hour != 5 || ctx.Minute != 30 || ctx.Weekday != time.Saturday || !ctx.Winter {
		t.Fatalf("unexpected context: %+v", ctx)
	}
}
