package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/casapulse/pulse-core/internal/device"
	"github.com/casapulse/pulse-core/internal/events"
	"github.com/casapulse/pulse-core/internal/home"
	"github.com/casapulse/pulse-core/internal/rules"
	"github.com/casapulse/pulse-core/internal/statecache"
	"github.com/casapulse/pulse-core/internal/telemetry"
)

// Resolver maps topic segments to internal identities via the state cache.
type Resolver interface {
	ResolveHome(ctx context.Context, homeUID string) (*statecache.Resolved, error)
	IsMember(ctx context.Context, homeUID, deviceUID string) (bool, error)
	SetLastPayload(ctx context.Context, deviceID string, payload []byte) error
}

// Store persists accepted readings.
type Store interface {
	Record(ctx context.Context, deviceID string, data []byte, ts time.Time) (*telemetry.Reading, error)
}

// Devices resolves and registers devices.
type Devices interface {
	GetByUID(ctx context.Context, orgID, uniqueID string) (*device.Device, error)
	RegisterDiscovered(ctx context.Context, orgID, homeID string, d *device.Discovered, newID string) error
}

// Homes covers the home-side bookkeeping the pipeline performs.
type Homes interface {
	GetHome(ctx context.Context, id string) (*home.Home, error)
	SetConnected(ctx context.Context, id string, connected bool) error
	TouchLastUpdate(ctx context.Context, id string, ts time.Time) error
	ListUsersForHome(ctx context.Context, homeID string) ([]home.User, error)
}

// RuleIndex supplies the candidate rules for a device.
type RuleIndex interface {
	RuleIDsForDevice(ctx context.Context, deviceID string) ([]string, error)
}

// Evaluator runs rule evaluation for an accepted reading.
type Evaluator interface {
	Evaluate(ctx context.Context, trigger *rules.Trigger) error
}

// EventSink is the slice of the event bus the gateway needs.
type EventSink interface {
	HomeConnected(ev events.HomeConnected) error
	UserNotification(ev events.UserSensorNotification) error
}

// Mirror receives accepted telemetry for time-series history. Optional.
type Mirror interface {
	WriteTelemetry(orgID, homeUID, deviceUID string, attributes map[string]interface{}, timestamp time.Time)
}

// Logger is the minimal logging interface the gateway needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Gateway routes inbound bus messages through the processing pipeline.
type Gateway struct {
	exec      *Executor
	resolver  Resolver
	store     Store
	devices   Devices
	homes     Homes
	ruleIndex RuleIndex
	engine    Evaluator
	sink      EventSink
	mirror    Mirror
	logger    Logger

	// now is the pipeline clock. Injectable for tests.
	now func() time.Time
}

// Deps bundles the gateway's collaborators.
type Deps struct {
	Executor  *Executor
	Resolver  Resolver
	Store     Store
	Devices   Devices
	Homes     Homes
	RuleIndex RuleIndex
	Engine    Evaluator
	Events    EventSink
	Mirror    Mirror // nil disables the time-series mirror
	Logger    Logger
}

// New creates a gateway from its dependencies.
func New(deps Deps) *Gateway {
	return &Gateway{
		exec:      deps.Executor,
		resolver:  deps.Resolver,
		store:     deps.Store,
		devices:   deps.Devices,
		homes:     deps.Homes,
		ruleIndex: deps.RuleIndex,
		engine:    deps.Engine,
		sink:      deps.Events,
		mirror:    deps.Mirror,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// OnMessage admits one inbound message. It returns immediately; processing
// happens on the executor, which invokes ack exactly once when the message
// has been handled. Unrecognised topics are dropped with a warning before
// admission so they never occupy a slot; they are acked on the spot.
func (g *Gateway) OnMessage(topic string, payload []byte, ack func()) error {
	parsed, err := parseTopic(topic)
	if err != nil {
		g.logger.Warn("dropping message on unrecognised topic", "topic", topic, "error", err)
		if ack != nil {
			ack()
		}
		return nil
	}

	g.exec.Submit(func() {
		ctx := context.Background()
		switch parsed.kind {
		case kindDiscovery:
			g.handleDiscovery(ctx, parsed.homeUID, payload)
		case kindTelemetry:
			g.handleTelemetry(ctx, parsed.homeUID, parsed.deviceUID, payload)
		}
	}, ack)
	return nil
}

// handleTelemetry runs the full pipeline for one device reading. Every
// failure drops the message with a log line; nothing propagates to the
// transport.
func (g *Gateway) handleTelemetry(ctx context.Context, homeUID, deviceUID string, payload []byte) {
	clean := telemetry.Sanitize(payload)
	data, err := telemetry.Decode(clean)
	if err != nil {
		g.logger.Warn("dropping malformed telemetry", "home_uid", homeUID, "device_uid", deviceUID, "error", err)
		return
	}

	res, err := g.resolver.ResolveHome(ctx, homeUID)
	if err != nil {
		if errors.Is(err, statecache.ErrUnknownHome) {
			g.logger.Warn("dropping telemetry for unknown home", "home_uid", homeUID)
		} else {
			g.logger.Error("home resolution failed", "home_uid", homeUID, "error", err)
		}
		return
	}

	member, err := g.resolver.IsMember(ctx, homeUID, deviceUID)
	if err != nil {
		g.logger.Error("membership check failed", "home_uid", homeUID, "device_uid", deviceUID, "error", err)
		return
	}
	if !member {
		g.logger.Warn("dropping telemetry from unregistered device", "home_uid", homeUID, "device_uid", deviceUID)
		return
	}

	dev, err := g.devices.GetByUID(ctx, res.OrgID, deviceUID)
	if err != nil {
		g.logger.Warn("dropping telemetry for unresolvable device", "device_uid", deviceUID, "error", err)
		return
	}

	now := g.now()
	prev, err := g.store.Record(ctx, dev.ID, clean, now)
	if err != nil {
		g.logger.Error("failed to persist reading", "device_id", dev.ID, "error", err)
		return
	}

	if err := g.homes.TouchLastUpdate(ctx, res.HomeID, now); err != nil {
		g.logger.Warn("failed to touch home last_update", "home_id", res.HomeID, "error", err)
	}

	g.markConnected(ctx, res.HomeID)

	users, err := g.homes.ListUsersForHome(ctx, res.HomeID)
	if err != nil {
		g.logger.Warn("failed to load home users", "home_id", res.HomeID, "error", err)
		users = nil
	}
	g.notifyChanges(prev, data, dev.ID, res.HomeID, users)

	g.evaluateRules(ctx, dev.ID, res, users, data, now)

	// The snapshot is written after evaluation so the engine's "previous
	// payload" check still refers to the reading before this one.
	if err := g.resolver.SetLastPayload(ctx, dev.ID, clean); err != nil {
		g.logger.Warn("failed to cache last payload", "device_id", dev.ID, "error", err)
	}

	if g.mirror != nil {
		g.mirror.WriteTelemetry(res.OrgID, homeUID, deviceUID, data, now)
	}
}

// markConnected flips a home to connected on its first-ever telemetry and
// announces the transition exactly once.
func (g *Gateway) markConnected(ctx context.Context, homeID string) {
	h, err := g.homes.GetHome(ctx, homeID)
	if err != nil {
		g.logger.Warn("failed to load home for connectivity check", "home_id", homeID, "error", err)
		return
	}
	if h.Connected {
		return
	}

	if err := g.homes.SetConnected(ctx, homeID, true); err != nil {
		g.logger.Warn("failed to mark home connected", "home_id", homeID, "error", err)
		return
	}
	if err := g.sink.HomeConnected(events.HomeConnected{HomeID: homeID, Connected: true}); err != nil {
		g.logger.Warn("failed to publish home-connected event", "home_id", homeID, "error", err)
	}
	g.logger.Debug("home connected", "home_id", homeID)
}

// notifyChanges emits one notification per opted-in user per watched
// attribute transition.
func (g *Gateway) notifyChanges(prev *telemetry.Reading, data map[string]any, deviceID, homeID string, users []home.User) {
	var prevData map[string]any
	if prev != nil {
		prevData, _ = telemetry.Decode(prev.Data) //nolint:errcheck // undecodable snapshot means no baseline
	}

	changes := telemetry.DetectChanges(prevData, data)
	if len(changes) == 0 || len(users) == 0 {
		return
	}

	for _, change := range changes {
		flag := change.Attribute + "False"
		if change.State {
			flag = change.Attribute + "True"
		}
		for i := range users {
			if !users[i].WantsNotification(change.Attribute, change.State) {
				continue
			}
			ev := events.UserSensorNotification{
				UserID:       users[i].ID,
				HomeID:       homeID,
				DeviceID:     deviceID,
				AttributeKey: flag,
				SensorKey:    change.Attribute,
				SensorValue:  change.State,
			}
			if err := g.sink.UserNotification(ev); err != nil {
				g.logger.Warn("failed to publish user notification", "user_id", users[i].ID, "error", err)
			}
		}
	}
}

// evaluateRules hands the accepted reading to the rule engine with its
// precomputed candidate set.
func (g *Gateway) evaluateRules(ctx context.Context, deviceID string, res *statecache.Resolved, users []home.User, data map[string]any, now time.Time) {
	ruleIDs, err := g.ruleIndex.RuleIDsForDevice(ctx, deviceID)
	if err != nil {
		g.logger.Error("failed to load candidate rules", "device_id", deviceID, "error", err)
		return
	}

	userIDs := make([]string, 0, len(users))
	for i := range users {
		userIDs = append(userIDs, users[i].ID)
	}

	trigger := &rules.Trigger{
		DeviceID:  deviceID,
		HomeID:    res.HomeID,
		HomeUID:   res.HomeUID,
		UserIDs:   userIDs,
		RuleIDs:   ruleIDs,
		Timestamp: now,
		Data:      data,
	}
	if err := g.engine.Evaluate(ctx, trigger); err != nil {
		g.logger.Error("rule evaluation failed", "device_id", deviceID, "error", err)
	}
}

// handleDiscovery registers a bridge's device inventory against the home.
func (g *Gateway) handleDiscovery(ctx context.Context, homeUID string, payload []byte) {
	res, err := g.resolver.ResolveHome(ctx, homeUID)
	if err != nil {
		g.logger.Warn("dropping discovery for unresolvable home", "home_uid", homeUID, "error", err)
		return
	}

	inventory, err := device.DecodeInventory(telemetry.Sanitize(payload))
	if err != nil {
		g.logger.Warn("dropping malformed device inventory", "home_uid", homeUID, "error", err)
		return
	}

	registered := 0
	for i := range inventory {
		d := &inventory[i]
		if d.IsCoordinator() {
			continue
		}
		if err := g.devices.RegisterDiscovered(ctx, res.OrgID, res.HomeID, d, uuid.NewString()); err != nil {
			g.logger.Warn("failed to register discovered device", "device_uid", d.Name, "error", err)
			continue
		}
		registered++
	}
	g.logger.Debug("bridge inventory processed", "home_uid", homeUID, "devices", registered)
}
