package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/casapulse/pulse-core/internal/device"
	"github.com/casapulse/pulse-core/internal/events"
	"github.com/casapulse/pulse-core/internal/home"
	"github.com/casapulse/pulse-core/internal/queue"
	"github.com/casapulse/pulse-core/internal/rules"
)

// Devices resolves command targets.
type Devices interface {
	Get(ctx context.Context, id string) (*device.Device, error)
}

// Homes resolves a device's home for outbound addressing.
type Homes interface {
	GetHome(ctx context.Context, id string) (*home.Home, error)
}

// RuleSource reloads a rule when a delayed job fires.
type RuleSource interface {
	GetRule(ctx context.Context, id string) (*rules.Rule, error)
}

// EventSink is the slice of the event bus the dispatcher needs.
type EventSink interface {
	DeviceCommand(ev events.DeviceCommand) error
	RuleNotification(ev events.RuleNotification) error
}

// Delayer schedules a job for future execution.
type Delayer interface {
	Submit(ctx context.Context, job queue.Job, delay time.Duration) error
}

// Logger is the minimal logging interface the dispatcher needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Dispatcher executes a fired rule's results.
//
// Thread Safety: safe for concurrent use.
type Dispatcher struct {
	devices Devices
	homes   Homes
	ruleSrc RuleSource
	sink    EventSink
	delayer Delayer
	logger  Logger
}

// New creates a result dispatcher.
func New(devices Devices, homes Homes, ruleSrc RuleSource, sink EventSink, delayer Delayer, logger Logger) *Dispatcher {
	return &Dispatcher{
		devices: devices,
		homes:   homes,
		ruleSrc: ruleSrc,
		sink:    sink,
		delayer: delayer,
		logger:  logger,
	}
}

// Dispatch executes every result of a fired rule. Results are independent:
// a failing result is logged and its siblings still run. If any result
// failed, Dispatch reports ErrResultFailed so the caller does not record
// the execution and a later trigger retries the whole set.
func (d *Dispatcher) Dispatch(ctx context.Context, rule *rules.Rule, trigger *rules.Trigger) error {
	homeUID := ""
	if trigger != nil {
		homeUID = trigger.HomeUID
	}
	return d.runResults(ctx, rule, homeUID, rule.Results)
}

// HandleDelayed executes a scheduled resend. The rule is reloaded and its
// active flag re-checked: a rule deactivated since scheduling makes the
// job a no-op rather than an error.
func (d *Dispatcher) HandleDelayed(ctx context.Context, job queue.Job) error {
	rule, err := d.ruleSrc.GetRule(ctx, job.RuleID)
	if err != nil {
		if errors.Is(err, rules.ErrRuleNotFound) {
			d.logger.Debug("delayed job for deleted rule dropped", "rule_id", job.RuleID)
			return nil
		}
		return fmt.Errorf("reloading rule %s for delayed job: %w", job.RuleID, err)
	}
	if !rule.Active {
		d.logger.Debug("delayed job for deactivated rule dropped", "rule_id", job.RuleID)
		return nil
	}

	return d.runResults(ctx, rule, job.HomeUniqueID, job.Results)
}

// runResults executes the given results for a rule, isolating failures.
func (d *Dispatcher) runResults(ctx context.Context, rule *rules.Rule, homeUID string, results []rules.Result) error {
	failed := 0
	for i := range results {
		res := &results[i]
		var err error
		switch res.Type {
		case rules.ResultCommand:
			err = d.runCommand(ctx, res)
		case rules.ResultNotification:
			err = d.runNotification(ctx, rule, homeUID, res)
		default:
			d.logger.Warn("unknown result type skipped", "rule_id", rule.ID, "result_id", res.ID, "type", res.Type)
			continue
		}
		if err != nil {
			failed++
			d.logger.Error("result execution failed", "rule_id", rule.ID, "result_id", res.ID, "error", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d results for rule %s", ErrResultFailed, failed, len(results), rule.ID)
	}
	return nil
}

// runCommand resolves the target device's addressing and publishes a
// device command. A device without a home association is a configuration
// gap, not an error: warn and skip.
func (d *Dispatcher) runCommand(ctx context.Context, res *rules.Result) error {
	if res.DeviceID == nil {
		d.logger.Warn("command result without target device skipped", "result_id", res.ID)
		return nil
	}

	dev, err := d.devices.Get(ctx, *res.DeviceID)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			d.logger.Warn("command target device missing, skipped", "result_id", res.ID, "device_id", *res.DeviceID)
			return nil
		}
		return fmt.Errorf("resolving command target %s: %w", *res.DeviceID, err)
	}
	if dev.HomeID == nil {
		d.logger.Warn("command target has no home association, skipped", "result_id", res.ID, "device_id", dev.ID)
		return nil
	}

	h, err := d.homes.GetHome(ctx, *dev.HomeID)
	if err != nil {
		if errors.Is(err, home.ErrHomeNotFound) {
			d.logger.Warn("command target home missing, skipped", "result_id", res.ID, "home_id", *dev.HomeID)
			return nil
		}
		return fmt.Errorf("resolving home %s: %w", *dev.HomeID, err)
	}

	return d.sink.DeviceCommand(events.DeviceCommand{
		HomeUniqueID:   h.UniqueID,
		DeviceUniqueID: dev.UniqueID,
		Command:        buildCommand(res),
	})
}

// buildCommand folds an attribute/value pair into a command object, or
// passes the raw command through when no attribute is set.
func buildCommand(res *rules.Result) map[string]any {
	if res.Attribute != nil && res.Value != nil {
		return map[string]any{*res.Attribute: res.Value}
	}
	return res.Command
}

// runNotification emits a rule-notification event and, for a positive
// resend interval, schedules a delayed repeat.
func (d *Dispatcher) runNotification(ctx context.Context, rule *rules.Rule, homeUID string, res *rules.Result) error {
	err := d.sink.RuleNotification(events.RuleNotification{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		ResultID: res.ID,
		Event:    res.Event,
		UserID:   rule.UserID,
		HomeID:   rule.HomeID,
	})
	if err != nil {
		return fmt.Errorf("emitting notification for result %s: %w", res.ID, err)
	}

	if res.ResendAfter > 0 && d.delayer != nil {
		job := queue.NewJob(rule, homeUID, []rules.Result{*res})
		delay := time.Duration(res.ResendAfter) * time.Second
		if err := d.delayer.Submit(ctx, job, delay); err != nil {
			return fmt.Errorf("scheduling resend for result %s: %w", res.ID, err)
		}
		d.logger.Debug("notification resend scheduled", "rule_id", rule.ID, "result_id", res.ID, "delay_seconds", res.ResendAfter)
	}
	return nil
}
