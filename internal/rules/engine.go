package rules

import (
	"context"
	"fmt"
)

// RuleSource loads candidate rules with their conditions and results.
type RuleSource interface {
	GetRules(ctx context.Context, ids []string) ([]Rule, error)
}

// Snapshots answers whether a device has a cached previous payload.
// Condition evaluation always compares against a "before" state, so a
// device's first reading after startup never fires rules.
type Snapshots interface {
	HasLastPayload(ctx context.Context, deviceID string) (bool, error)
}

// Dispatcher executes the results of a firing rule.
type Dispatcher interface {
	Dispatch(ctx context.Context, r *Rule, trigger *Trigger) error
}

// Logger is the minimal logging interface used by the engine.
type Logger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

// Engine evaluates candidate rules against accepted telemetry.
type Engine struct {
	source     RuleSource
	snapshots  Snapshots
	scheduler  *Scheduler
	dispatcher Dispatcher
	log        Logger
}

// NewEngine creates a rule evaluation engine.
func NewEngine(source RuleSource, snapshots Snapshots, scheduler *Scheduler, dispatcher Dispatcher, log Logger) *Engine {
	return &Engine{
		source:     source,
		snapshots:  snapshots,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Evaluate determines which of the trigger's candidate rules fire and
// dispatches their results. One rule's failure never aborts its siblings.
func (e *Engine) Evaluate(ctx context.Context, trigger *Trigger) error {
	if len(trigger.RuleIDs) == 0 {
		return nil
	}

	hasPrevious, err := e.snapshots.HasLastPayload(ctx, trigger.DeviceID)
	if err != nil {
		return fmt.Errorf("checking payload snapshot for %s: %w", trigger.DeviceID, err)
	}
	if !hasPrevious {
		e.log.Debug("skipping evaluation, no previous payload", "device_id", trigger.DeviceID)
		return nil
	}

	candidates, err := e.source.GetRules(ctx, trigger.RuleIDs)
	if err != nil {
		return fmt.Errorf("loading rules for %s: %w", trigger.DeviceID, err)
	}

	for i := range candidates {
		rule := &candidates[i]
		if err := e.evaluateRule(ctx, rule, trigger); err != nil {
			e.log.Error("rule evaluation failed", "rule_id", rule.ID, "error", err)
		}
	}
	return nil
}

// evaluateRule runs the full check-and-fire sequence for one rule.
func (e *Engine) evaluateRule(ctx context.Context, rule *Rule, trigger *Trigger) error {
	if !rule.Active {
		return nil
	}

	eligible, err := e.scheduler.Eligible(ctx, rule)
	if err != nil {
		return fmt.Errorf("eligibility check: %w", err)
	}
	if !eligible {
		return nil
	}

	if !e.conditionsMatch(rule, trigger.Data) {
		return nil
	}

	e.log.Debug("rule fired", "rule_id", rule.ID, "rule_name", rule.Name, "device_id", trigger.DeviceID)

	if err := e.dispatcher.Dispatch(ctx, rule, trigger); err != nil {
		return fmt.Errorf("dispatching results: %w", err)
	}

	if err := e.scheduler.RecordExecution(ctx, rule); err != nil {
		return fmt.Errorf("recording execution: %w", err)
	}
	return nil
}

// conditionsMatch evaluates a rule's conditions against the new payload
// and combines them under AND or OR semantics. Zero conditions match
// trivially; a missing attribute makes its condition false.
func (e *Engine) conditionsMatch(rule *Rule, data map[string]any) bool {
	if len(rule.Conditions) == 0 {
		return true
	}

	for _, c := range rule.Conditions {
		current, ok := data[c.Attribute]
		matched := ok && current != nil && Compare(current, c.Operation, c.Value)

		if rule.AllConditions && !matched {
			return false
		}
		if !rule.AllConditions && matched {
			return true
		}
	}
	return rule.AllConditions
}
