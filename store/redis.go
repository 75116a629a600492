package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tibrahul/Radicchio/internal/logging"
	"github.com/tibrahul/Radicchio/types"
)

//go:embed lua/*.lua
var luaFS embed.FS

func mustScript(name string) *redis.Script {
	src, err := luaFS.ReadFile("lua/" + name + ".lua")
	if err != nil {
		panic(fmt.Sprintf("store: missing embedded script %s: %v", name, err))
	}

	return redis.NewScript(string(src))
}

// Scripts are loaded once and run with EVALSHA, falling back to EVAL when the
// server does not have them cached yet.
var (
	scriptCreate         = mustScript("create")
	scriptTimeLeft       = mustScript("time_left")
	scriptDelete         = mustScript("delete")
	scriptSuspend        = mustScript("suspend")
	scriptResume         = mustScript("resume")
	scriptMembers        = mustScript("members")
	scriptPayload        = mustScript("payload")
	scriptRemoveFromBoth = mustScript("remove_from_both")
	scriptCountExisting  = mustScript("count_existing")
)

// KeyspaceEventsFlags is the notify-keyspace-events value the store needs:
// keyevent notifications for every class.
const KeyspaceEventsFlags = "KEA"

// Redis is a types.Store backed by a Redis server.
type Redis struct {
	client                 redis.UniversalClient
	db                     int
	configureNotifications bool
	bufferSize             int
	logger                 types.Logger
}

// Compile-time assertion that Redis implements Store.
var _ types.Store = (*Redis)(nil)

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithRedisDB sets the logical database whose keyevent channels are watched.
//
// Defaults to the DB of a *redis.Client, or 0 for other client kinds.
func WithRedisDB(db int) RedisOption {
	return func(r *Redis) {
		r.db = db
	}
}

// WithConfigureNotifications controls whether Subscribe issues
// CONFIG SET notify-keyspace-events before subscribing.
//
// Enabled by default. Disable it for managed deployments that forbid CONFIG
// and have notifications enabled server-side.
func WithConfigureNotifications(enabled bool) RedisOption {
	return func(r *Redis) {
		r.configureNotifications = enabled
	}
}

// WithRedisBuffer sets the notification channel capacity of subscriptions.
func WithRedisBuffer(size int) RedisOption {
	return func(r *Redis) {
		if size > 0 {
			r.bufferSize = size
		}
	}
}

// WithRedisLogger sets the logger for subscription diagnostics.
func WithRedisLogger(logger types.Logger) RedisOption {
	return func(r *Redis) {
		r.logger = logging.OrNop(logger)
	}
}

// NewRedis creates a Redis-backed store.
//
// Parameters:
//   - client: Connected Redis client; the caller keeps ownership and closes it
//   - opts: Optional configuration
//
// Returns:
//   - *Redis: Store ready for use
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	st := store.NewRedis(client)
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client:                 client,
		configureNotifications: true,
		bufferSize:             DefaultNotificationBuffer,
		logger:                 logging.NewNop(),
	}
	if c, ok := client.(*redis.Client); ok {
		r.db = c.Options().DB
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Create implements types.Store.
func (r *Redis) Create(ctx context.Context, timerRegistry, timerID, dataRegistry string, ttl time.Duration, payload []byte) error {
	ok, err := scriptCreate.Run(ctx, r.client,
		[]string{timerRegistry, timerID, dataRegistry},
		ttl.Milliseconds(), payload,
	).Int64()
	if err != nil {
		return types.StoreError("create", err)
	}
	if ok == 0 {
		return types.ErrTimerExists
	}

	return nil
}

// TimeLeft implements types.Store.
func (r *Redis) TimeLeft(ctx context.Context, timerID string) (int64, error) {
	ms, err := scriptTimeLeft.Run(ctx, r.client, []string{timerID}).Int64()
	if err != nil {
		return 0, types.StoreError("time_left", err)
	}

	return ms, nil
}

// Delete implements types.Store.
func (r *Redis) Delete(ctx context.Context, timerRegistry, dataRegistry, timerID string) ([]byte, error) {
	payload, err := scriptDelete.Run(ctx, r.client, []string{timerRegistry, dataRegistry, timerID}).Text()
	if errors.Is(err, redis.Nil) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, types.StoreError("delete", err)
	}

	return []byte(payload), nil
}

// Suspend implements types.Store.
func (r *Redis) Suspend(ctx context.Context, timerRegistry, timerID, markerKey string) (bool, error) {
	ok, err := scriptSuspend.Run(ctx, r.client, []string{timerRegistry, timerID, markerKey}).Int64()
	if err != nil {
		return false, types.StoreError("suspend", err)
	}

	return ok == 1, nil
}

// Resume implements types.Store.
func (r *Redis) Resume(ctx context.Context, timerRegistry, timerID, markerKey string) (bool, error) {
	ok, err := scriptResume.Run(ctx, r.client, []string{timerRegistry, timerID, markerKey}).Int64()
	if err != nil {
		return false, types.StoreError("resume", err)
	}

	return ok == 1, nil
}

// Members implements types.Store.
func (r *Redis) Members(ctx context.Context, registry string) ([]string, error) {
	members, err := scriptMembers.Run(ctx, r.client, []string{registry}).StringSlice()
	if err != nil {
		return nil, types.StoreError("members", err)
	}

	return members, nil
}

// Payload implements types.Store.
func (r *Redis) Payload(ctx context.Context, dataRegistry, timerID string) ([]byte, error) {
	payload, err := scriptPayload.Run(ctx, r.client, []string{dataRegistry}, timerID).Text()
	if errors.Is(err, redis.Nil) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, types.StoreError("payload", err)
	}

	return []byte(payload), nil
}

// RemoveFromBoth implements types.Store.
func (r *Redis) RemoveFromBoth(ctx context.Context, timerRegistry, dataRegistry, timerID string) error {
	err := scriptRemoveFromBoth.Run(ctx, r.client, []string{timerRegistry, dataRegistry}, timerID).Err()

	return types.StoreError("remove_from_both", err)
}

// CountExisting implements types.Store.
func (r *Redis) CountExisting(ctx context.Context, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	n, err := scriptCountExisting.Run(ctx, r.client, keys).Int64()
	if err != nil {
		return 0, types.StoreError("count_existing", err)
	}

	return int(n), nil
}

// Channels returns the keyevent channels the store subscribes to.
func (r *Redis) Channels() []string {
	return []string{
		fmt.Sprintf("__keyevent@%d__:del", r.db),
		fmt.Sprintf("__keyevent@%d__:expired", r.db),
		fmt.Sprintf("__keyevent@%d__:expire", r.db),
	}
}

// Subscribe implements types.Store.
//
// The subscription is confirmed by the server before Subscribe returns.
func (r *Redis) Subscribe(ctx context.Context) (types.Subscription, error) {
	if r.configureNotifications {
		if err := r.client.ConfigSet(ctx, "notify-keyspace-events", KeyspaceEventsFlags).Err(); err != nil {
			return nil, types.StoreError("subscribe", fmt.Errorf("enable keyspace notifications: %w", err))
		}
	}

	ps := r.client.Subscribe(ctx, r.Channels()...)
	for range r.Channels() {
		if _, err := ps.Receive(ctx); err != nil {
			_ = ps.Close()
			return nil, types.StoreError("subscribe", err)
		}
	}

	sub := &redisSubscription{
		ps:     ps,
		ch:     make(chan types.Notification, r.bufferSize),
		doneCh: make(chan struct{}),
		logger: r.logger,
	}
	go sub.pump(ps.Channel(redis.WithChannelSize(r.bufferSize)))

	r.logger.Info("subscribed to keyspace notifications", "channels", r.Channels())

	return sub, nil
}

// redisSubscription translates pub/sub messages into notifications.
type redisSubscription struct {
	ps        *redis.PubSub
	ch        chan types.Notification
	doneCh    chan struct{}
	logger    types.Logger
	closeOnce sync.Once
}

// C implements types.Subscription.
func (s *redisSubscription) C() <-chan types.Notification {
	return s.ch
}

// Close implements types.Subscription.
func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.ps.Close()
		<-s.doneCh
	})

	return err
}

func (s *redisSubscription) pump(msgs <-chan *redis.Message) {
	defer close(s.doneCh)
	defer close(s.ch)

	for msg := range msgs {
		kind, ok := notificationKind(msg.Channel)
		if !ok {
			continue
		}
		select {
		case s.ch <- types.Notification{Kind: kind, Key: msg.Payload}:
		default:
			s.logger.Warn("notification dropped", "kind", kind.String(), "key", msg.Payload)
		}
	}
}

// notificationKind maps a keyevent channel to its notification kind.
func notificationKind(channel string) (types.NotificationKind, bool) {
	idx := strings.LastIndexByte(channel, ':')
	if idx < 0 {
		return 0, false
	}

	switch channel[idx+1:] {
	case "del":
		return types.NotificationDeleted, true
	case "expired":
		return types.NotificationExpired, true
	case "expire":
		return types.NotificationExpiryArmed, true
	default:
		return 0, false
	}
}
