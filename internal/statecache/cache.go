package statecache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/casapulse/pulse-core/internal/device"
	"github.com/casapulse/pulse-core/internal/home"
)

// HomeSource provides the topology lookups needed to fill cache misses.
type HomeSource interface {
	GetHomeByUID(ctx context.Context, uniqueID string) (*home.Home, error)
	ListHomes(ctx context.Context) ([]home.Home, error)
}

// DeviceSource provides the device lookups needed to fill cache misses.
type DeviceSource interface {
	ListByHome(ctx context.Context, homeID string) ([]device.Device, error)
}

// Logger is the minimal logging interface used by the cache.
type Logger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

// Cache is the Redis-backed hot state for the ingest pipeline.
type Cache struct {
	rdb     *goredis.Client
	homes   HomeSource
	devices DeviceSource
	log     Logger
}

// New creates a state cache over the given Redis client and repositories.
func New(rdb *goredis.Client, homes HomeSource, devices DeviceSource, log Logger) *Cache {
	return &Cache{rdb: rdb, homes: homes, devices: devices, log: log}
}

// ─── Home resolution ─────────────────────────────────────────────────────────

// Resolved holds the outcome of resolving an inbound topic's home segment.
type Resolved struct {
	HomeID  string
	OrgID   string
	HomeUID string
}

// ResolveHome maps a home UID from an inbound topic to its internal ID and
// organisation, via the cache when warm and the repository on a miss.
func (c *Cache) ResolveHome(ctx context.Context, homeUID string) (*Resolved, error) {
	org, err := c.rdb.Get(ctx, keyHomeOrg(homeUID)).Result()
	if err == nil && org != "" {
		id, err := c.rdb.Get(ctx, keyHomeID(homeUID)).Result()
		if err == nil && id != "" {
			return &Resolved{HomeID: id, OrgID: org, HomeUID: homeUID}, nil
		}
	}

	h, err := c.homes.GetHomeByUID(ctx, homeUID)
	if err != nil {
		if errors.Is(err, home.ErrHomeNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownHome, homeUID)
		}
		return nil, fmt.Errorf("resolving home %s: %w", homeUID, err)
	}

	if err := c.populateHome(ctx, h); err != nil {
		c.log.Warn("failed to populate home cache", "home_uid", homeUID, "error", err)
	}
	return &Resolved{HomeID: h.ID, OrgID: h.OrgID, HomeUID: homeUID}, nil
}

// IsMember reports whether a device UID belongs to a home's membership
// set, loading the set from the repository on a cache miss.
func (c *Cache) IsMember(ctx context.Context, homeUID, deviceUID string) (bool, error) {
	key := keyHomeDevices(homeUID)

	exists, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("checking membership set for %s: %w", homeUID, err)
	}
	if exists == 0 {
		if err := c.loadMembership(ctx, homeUID); err != nil {
			return false, err
		}
	}

	member, err := c.rdb.SIsMember(ctx, key, deviceUID).Result()
	if err != nil {
		return false, fmt.Errorf("checking member %s of %s: %w", deviceUID, homeUID, err)
	}
	return member, nil
}

// loadMembership fills a home's membership set from the repositories.
func (c *Cache) loadMembership(ctx context.Context, homeUID string) error {
	h, err := c.homes.GetHomeByUID(ctx, homeUID)
	if err != nil {
		if errors.Is(err, home.ErrHomeNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownHome, homeUID)
		}
		return fmt.Errorf("loading home %s: %w", homeUID, err)
	}
	return c.populateHome(ctx, h)
}

// populateHome writes a home's org mapping and device membership set.
func (c *Cache) populateHome(ctx context.Context, h *home.Home) error {
	devices, err := c.devices.ListByHome(ctx, h.ID)
	if err != nil {
		return fmt.Errorf("listing devices for home %s: %w", h.ID, err)
	}

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, keyHomeOrg(h.UniqueID), h.OrgID, 0)
	pipe.Set(ctx, keyHomeID(h.UniqueID), h.ID, 0)

	key := keyHomeDevices(h.UniqueID)
	pipe.Del(ctx, key)
	if len(devices) > 0 {
		members := make([]interface{}, 0, len(devices))
		for _, d := range devices {
			members = append(members, d.UniqueID)
		}
		pipe.SAdd(ctx, key, members...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("populating cache for home %s: %w", h.UniqueID, err)
	}
	return nil
}

// Rebuild eagerly repopulates membership and org mappings for all homes.
// Run periodically so topology changes land without waiting for a miss.
func (c *Cache) Rebuild(ctx context.Context) error {
	homes, err := c.homes.ListHomes(ctx)
	if err != nil {
		return fmt.Errorf("listing homes for rebuild: %w", err)
	}

	for i := range homes {
		if err := c.populateHome(ctx, &homes[i]); err != nil {
			c.log.Warn("cache rebuild failed for home", "home_uid", homes[i].UniqueID, "error", err)
			continue
		}
	}
	c.log.Debug("cache rebuild complete", "homes", len(homes))
	return nil
}

// ─── Last-payload snapshots ──────────────────────────────────────────────────

// LastPayload returns the cached raw payload for a device, or ErrNoPayload
// when no snapshot exists yet.
func (c *Cache) LastPayload(ctx context.Context, deviceID string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, keyDeviceLast(deviceID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrNoPayload
		}
		return nil, fmt.Errorf("reading payload snapshot for %s: %w", deviceID, err)
	}
	return data, nil
}

// HasLastPayload reports whether a payload snapshot exists for a device.
func (c *Cache) HasLastPayload(ctx context.Context, deviceID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, keyDeviceLast(deviceID)).Result()
	if err != nil {
		return false, fmt.Errorf("checking payload snapshot for %s: %w", deviceID, err)
	}
	return n > 0, nil
}

// SetLastPayload stores a device's raw payload snapshot. The gateway calls
// this after rule evaluation so the engine always sees pre-message state.
func (c *Cache) SetLastPayload(ctx context.Context, deviceID string, payload []byte) error {
	if err := c.rdb.Set(ctx, keyDeviceLast(deviceID), payload, 0).Err(); err != nil {
		return fmt.Errorf("storing payload snapshot for %s: %w", deviceID, err)
	}
	return nil
}

// ─── Rule execution markers ──────────────────────────────────────────────────

// RuleExecuted reports whether a rule's one-shot execution marker is set.
func (c *Cache) RuleExecuted(ctx context.Context, ruleID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, keyRuleExecuted(ruleID)).Result()
	if err != nil {
		return false, fmt.Errorf("reading executed marker for rule %s: %w", ruleID, err)
	}
	return n > 0, nil
}

// MarkRuleExecuted sets a rule's one-shot execution marker.
func (c *Cache) MarkRuleExecuted(ctx context.Context, ruleID string) error {
	if err := c.rdb.Set(ctx, keyRuleExecuted(ruleID), "1", 0).Err(); err != nil {
		return fmt.Errorf("setting executed marker for rule %s: %w", ruleID, err)
	}
	return nil
}

// ClearRuleExecuted removes a rule's one-shot execution marker, re-arming
// the rule.
func (c *Cache) ClearRuleExecuted(ctx context.Context, ruleID string) error {
	if err := c.rdb.Del(ctx, keyRuleExecuted(ruleID)).Err(); err != nil {
		return fmt.Errorf("clearing executed marker for rule %s: %w", ruleID, err)
	}
	return nil
}

// LastExecution returns when a rule last fired, or the zero time when it
// never has.
func (c *Cache) LastExecution(ctx context.Context, ruleID string) (time.Time, error) {
	val, err := c.rdb.Get(ctx, keyRuleLastExecution(ruleID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("reading last execution for rule %s: %w", ruleID, err)
	}

	millis, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last execution for rule %s: %w", ruleID, err)
	}
	return time.UnixMilli(millis), nil
}

// SetLastExecution overwrites a rule's last execution timestamp.
func (c *Cache) SetLastExecution(ctx context.Context, ruleID string, t time.Time) error {
	val := strconv.FormatInt(t.UnixMilli(), 10)
	if err := c.rdb.Set(ctx, keyRuleLastExecution(ruleID), val, 0).Err(); err != nil {
		return fmt.Errorf("setting last execution for rule %s: %w", ruleID, err)
	}
	return nil
}
