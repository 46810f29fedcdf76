// Package insights provides the CEL-Go based insight rule engine. Rules
// turn an analysis summary into short free-text findings for the result
// payload.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/opensource-climate/petrel/internal/domain"
)

// Engine compiles and evaluates insight rules. Safe for concurrent use;
// rule reloads swap the compiled set under the write lock.
type Engine struct {
	mu       sync.RWMutex
	env      *cel.Env
	compiled map[string]*compiledRule
}

type compiledRule struct {
	config  *domain.InsightRule
	when    cel.Program
	message cel.Program
}

// NewEngine creates the engine with the analysis summary variables
// declared. Float variables also exist in a pre-formatted "_str" form for
// message building.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("stop_hours", cel.IntType),
		cel.Variable("attention_hours", cel.IntType),
		cel.Variable("operational_hours", cel.IntType),
		cel.Variable("total_hours", cel.IntType),
		cel.Variable("stop_pct", cel.DoubleType),
		cel.Variable("stop_pct_str", cel.StringType),
		cel.Variable("effective_stop_hours", cel.DoubleType),
		cel.Variable("effective_stop_hours_str", cel.StringType),
		cel.Variable("worst_hazard", cel.StringType),
		cel.Variable("worst_peak", cel.DoubleType),
		cel.Variable("worst_peak_str", cel.StringType),
		cel.Variable("combine_mode", cel.StringType),
		cel.Variable("asset_type", cel.StringType),
		cel.Variable("aal", cel.DoubleType),
		cel.Variable("aal_str", cel.StringType),
		cel.Variable("technical_premium", cel.DoubleType),
		cel.Variable("technical_premium_str", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:      env,
		compiled: make(map[string]*compiledRule),
	}, nil
}

// ValidateRule compiles a rule without loading it.
func (e *Engine) ValidateRule(cfg *domain.InsightRule) error {
	if cfg == nil {
		return fmt.Errorf("insight rule is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compileRule(cfg)
	return err
}

// LoadRule compiles and loads one rule.
func (e *Engine) LoadRule(cfg *domain.InsightRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compileRule(cfg)
	if err != nil {
		return err
	}
	e.compiled[cfg.ID] = compiled
	return nil
}

// LoadRules compiles and loads every enabled rule.
func (e *Engine) LoadRules(configs []*domain.InsightRule) error {
	for _, cfg := range configs {
		if cfg.Enabled {
			if err := e.LoadRule(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReplaceAll swaps the loaded rule set for the given one. Used by the
// reload endpoint; an invalid rule aborts the swap and keeps the current
// set.
func (e *Engine) ReplaceAll(configs []*domain.InsightRule) error {
	next := make(map[string]*compiledRule, len(configs))

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		compiled, err := e.compileRule(cfg)
		if err != nil {
			return err
		}
		next[cfg.ID] = compiled
	}
	e.compiled = next
	return nil
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiled)
}

// Evaluate runs every loaded rule against the summary variables and
// returns the messages of the rules whose condition held, ordered by
// priority then rule ID. A rule that fails to evaluate is skipped with a
// warning; insights are advisory and never fail an analysis.
func (e *Engine) Evaluate(_ context.Context, vars map[string]any) []string {
	e.mu.RLock()
	rules := make([]*compiledRule, 0, len(e.compiled))
	for _, r := range e.compiled {
		rules = append(rules, r)
	}
	e.mu.RUnlock()

	if len(rules) == 0 {
		return nil
	}

	sort.Slice(rules, func(i, j int) bool {
		if rules[i].config.Priority != rules[j].config.Priority {
			return rules[i].config.Priority < rules[j].config.Priority
		}
		return rules[i].config.ID < rules[j].config.ID
	})

	activation := buildActivation(vars)

	var out []string
	for _, rule := range rules {
		held, err := evalBool(rule.when, activation)
		if err != nil {
			slog.Warn("insight condition failed", "rule", rule.config.ID, "error", err)
			continue
		}
		if !held {
			continue
		}

		msg, err := evalString(rule.message, activation)
		if err != nil {
			slog.Warn("insight message failed", "rule", rule.config.ID, "error", err)
			continue
		}
		out = append(out, msg)
	}
	return out
}

func (e *Engine) compileRule(cfg *domain.InsightRule) (*compiledRule, error) {
	when, err := e.compile(cfg.When)
	if err != nil {
		return nil, fmt.Errorf("rule %s: when: %w", cfg.ID, err)
	}
	message, err := e.compile(cfg.Message)
	if err != nil {
		return nil, fmt.Errorf("rule %s: message: %w", cfg.ID, err)
	}
	return &compiledRule{config: cfg, when: when, message: message}, nil
}

func (e *Engine) compile(expr string) (cel.Program, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile failed: %w", issues.Err())
	}
	return e.env.Program(ast)
}

// buildActivation fills the declared variables from the summary map,
// deriving the "_str" forms from their float counterparts.
func buildActivation(vars map[string]any) map[string]any {
	activation := map[string]any{
		"stop_hours":           0,
		"attention_hours":      0,
		"operational_hours":    0,
		"total_hours":          0,
		"stop_pct":             0.0,
		"effective_stop_hours": 0.0,
		"worst_hazard":         "",
		"worst_peak":           0.0,
		"combine_mode":         "",
		"asset_type":           "",
		"aal":                  0.0,
		"technical_premium":    0.0,
	}
	for k, v := range vars {
		activation[k] = v
	}

	activation["stop_pct_str"] = formatted(activation["stop_pct"], "%.1f")
	activation["effective_stop_hours_str"] = formatted(activation["effective_stop_hours"], "%.1f")
	activation["worst_peak_str"] = formatted(activation["worst_peak"], "%.2f")
	activation["aal_str"] = formatted(activation["aal"], "%.2f")
	activation["technical_premium_str"] = formatted(activation["technical_premium"], "%.2f")
	return activation
}

func formatted(v any, layout string) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	return fmt.Sprintf(layout, f)
}

func evalBool(p cel.Program, activation map[string]any) (bool, error) {
	out, _, err := p.Eval(activation)
	if err != nil {
		return false, err
	}
	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("condition is not a bool: %v", out)
	}
	return bool(b), nil
}

func evalString(p cel.Program, activation map[string]any) (string, error) {
	out, _, err := p.Eval(activation)
	if err != nil {
		return "", err
	}
	s, ok := out.(types.String)
	if !ok {
		return "", fmt.Errorf("message is not a string: %v", out)
	}
	return string(s), nil
}
