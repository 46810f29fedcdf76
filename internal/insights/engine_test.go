package insights

import (
	"context"
	"strings"
	"testing"

	"github.com/opensource-climate/petrel/internal/domain"
)

func TestEngineCreation(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	if engine.RulesCount() != 0 {
		t.Errorf("expected 0 rules, got %d", engine.RulesCount())
	}
}

func TestLoadInvalidRule(t *testing.T) {
	engine, _ := NewEngine()

	err := engine.LoadRule(&domain.InsightRule{
		ID:      "bad",
		When:    "this is not valid CEL !!!",
		Message: "'x'",
		Enabled: true,
	})
	if err == nil {
		t.Error("expected error for invalid CEL expression")
	}
}

func TestBuiltinRulesEvaluate(t *testing.T) {
	engine, _ := NewEngine()
	if err := engine.LoadRules(BuiltinRules()); err != nil {
		t.Fatalf("failed to load builtin rules: %v", err)
	}

	out := engine.Evaluate(context.Background(), map[string]any{
		"stop_hours":   1,
		"total_hours":  4,
		"stop_pct":     25.0,
		"worst_hazard": "wind",
		"worst_peak":   22.0,
		"combine_mode": "worst",
	})

	if len(out) != 3 {
		t.Fatalf("expected 3 insights, got %d: %v", len(out), out)
	}
	if out[0] != "Combined downtime: 1h (25.0% of period)." {
		t.Errorf("downtime insight = %q", out[0])
	}
	if out[1] != "Highest observed peak: wind at 22.00." {
		t.Errorf("peak insight = %q", out[1])
	}
	if out[2] != "Combination rule: worst." {
		t.Errorf("rule insight = %q", out[2])
	}
}

func TestEvaluateConditionGating(t *testing.T) {
	engine, _ := NewEngine()
	engine.LoadRule(&domain.InsightRule{
		ID:      "high-downtime",
		When:    "stop_pct > 50.0",
		Message: "'Downtime exceeds half the period.'",
		Enabled: true,
	})

	out := engine.Evaluate(context.Background(), map[string]any{"stop_pct": 10.0})
	if len(out) != 0 {
		t.Errorf("expected no insights below threshold, got %v", out)
	}

	out = engine.Evaluate(context.Background(), map[string]any{"stop_pct": 80.0})
	if len(out) != 1 || !strings.Contains(out[0], "exceeds half") {
		t.Errorf("expected downtime insight, got %v", out)
	}
}

func TestEvaluatePriorityOrder(t *testing.T) {
	engine, _ := NewEngine()
	engine.LoadRule(&domain.InsightRule{
		ID: "second", When: "true", Message: "'second'", Priority: 20, Enabled: true,
	})
	engine.LoadRule(&domain.InsightRule{
		ID: "first", When: "true", Message: "'first'", Priority: 10, Enabled: true,
	})

	out := engine.Evaluate(context.Background(), nil)
	if len(out) != 2 || out[0] != "first" || out[1] != "second" {
		t.Errorf("priority order wrong: %v", out)
	}
}

func TestReplaceAllKeepsSetOnError(t *testing.T) {
	engine, _ := NewEngine()
	engine.LoadRules(BuiltinRules())

	err := engine.ReplaceAll([]*domain.InsightRule{
		{ID: "broken", When: "!!!", Message: "'x'", Enabled: true},
	})
	if err == nil {
		t.Fatal("expected error for broken replacement set")
	}
	if engine.RulesCount() != 3 {
		t.Errorf("rule count = %d after failed replace, want 3", engine.RulesCount())
	}
}

func TestReplaceAll(t *testing.T) {
	engine, _ := NewEngine()
	engine.LoadRules(BuiltinRules())

	err := engine.ReplaceAll([]*domain.InsightRule{
		{ID: "only", When: "true", Message: "'only'", Enabled: true},
		{ID: "disabled", When: "true", Message: "'x'", Enabled: false},
	})
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if engine.RulesCount() != 1 {
		t.Errorf("rule count = %d, want 1", engine.RulesCount())
	}
}
