package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tibrahul/Radicchio/codec"
	"github.com/tibrahul/Radicchio/internal/logging"
	"github.com/tibrahul/Radicchio/internal/natsutil"
	"github.com/tibrahul/Radicchio/types"
)

// DefaultSubjectPrefix is used when Config.SubjectPrefix is empty.
const DefaultSubjectPrefix = "radicchio.events"

var (
	// ErrConnRequired is returned when New receives a nil connection.
	ErrConnRequired = errors.New("NATS connection is required")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("relay already started")
)

// Config configures a Relay.
type Config struct {
	// SubjectPrefix is prepended to event names. Default: "radicchio.events"
	SubjectPrefix string `yaml:"subjectPrefix"`

	// Stream is the JetStream stream capturing relayed events.
	// Empty publishes on core NATS only.
	Stream string `yaml:"stream"`

	// StreamMaxAge bounds how long the stream retains events. 0 keeps them
	// until other stream limits apply.
	StreamMaxAge time.Duration `yaml:"streamMaxAge"`

	// ProvisionRetries is the number of stream provisioning attempts. Default: 3
	ProvisionRetries int `yaml:"provisionRetries"`
}

// Envelope is the wire form of a relayed event.
type Envelope struct {
	Name    types.EventName `cbor:"name"`
	TimerID string          `cbor:"timer_id"`

	// Payload is the timer payload as serialized by the emitting manager's
	// codec. Only set for expired events.
	Payload []byte `cbor:"payload,omitempty"`

	At time.Time `cbor:"at"`
}

// Encode serializes the envelope.
func (e Envelope) Encode() ([]byte, error) {
	return codec.Encode(e)
}

// DecodeEnvelope parses a relayed message body.
//
// Returns:
//   - Envelope: The decoded envelope
//   - error: types.ErrMalformedPayload for undecodable or unknown events
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := codec.Decode(data, &env); err != nil {
		return Envelope{}, err
	}
	if !env.Name.Valid() {
		return Envelope{}, fmt.Errorf("%w: unknown event %q", types.ErrMalformedPayload, env.Name)
	}

	return env, nil
}

// Option configures a Relay or a Subscribe call.
type Option func(*options)

type options struct {
	logger types.Logger
	codec  types.Codec
}

// WithLogger sets the logger.
func WithLogger(logger types.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCodec sets the codec Subscribe uses to decode Event.Data. It must match
// the emitting manager's codec. Without it, subscribers only get Event.Raw.
func WithCodec(c types.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.OrNop(o.logger)

	return o
}

// Relay publishes domain events to NATS.
type Relay struct {
	conn   *nats.Conn
	cfg    Config
	logger types.Logger

	mu      sync.Mutex
	started bool
	js      jetstream.JetStream

	published atomic.Uint64
	failed    atomic.Uint64
}

// New creates a relay. Call Start before attaching it to an event source.
//
// Parameters:
//   - conn: NATS connection
//   - cfg: Subjects and optional stream
//   - opts: Optional logger
//
// Returns:
//   - *Relay: Relay ready to Start
//   - error: ErrConnRequired
func New(conn *nats.Conn, cfg Config, opts ...Option) (*Relay, error) {
	if conn == nil {
		return nil, ErrConnRequired
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = DefaultSubjectPrefix
	}
	if cfg.ProvisionRetries <= 0 {
		cfg.ProvisionRetries = 3
	}

	o := applyOptions(opts)

	return &Relay{conn: conn, cfg: cfg, logger: o.logger}, nil
}

// Start provisions the JetStream stream when one is configured.
//
// Parameters:
//   - ctx: Context bounding provisioning
//
// Returns:
//   - error: ErrAlreadyStarted or the provisioning failure
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrAlreadyStarted
	}

	if r.cfg.Stream != "" {
		js, err := jetstream.New(r.conn)
		if err != nil {
			return fmt.Errorf("failed to create jetstream context: %w", err)
		}

		_, err = natsutil.EnsureStreamWithRetry(ctx, js, jetstream.StreamConfig{
			Name:     r.cfg.Stream,
			Subjects: []string{r.cfg.SubjectPrefix + ".>"},
			MaxAge:   r.cfg.StreamMaxAge,
			Storage:  jetstream.FileStorage,
		}, r.cfg.ProvisionRetries)
		if err != nil {
			return fmt.Errorf("failed to provision relay stream: %w", err)
		}
		r.js = js
	}

	r.started = true
	r.logger.Info("event relay started",
		"subject_prefix", r.cfg.SubjectPrefix,
		"stream", r.cfg.Stream,
	)

	return nil
}

// Attach registers the relay for every domain event of src.
//
// Parameters:
//   - src: Event source, typically a *radicchio.Manager
//
// Returns:
//   - error: Registration failure
func (r *Relay) Attach(src types.EventSource) error {
	for _, name := range types.EventNames() {
		if err := src.On(name, r.Publish); err != nil {
			return fmt.Errorf("failed to attach relay to %s events: %w", name, err)
		}
	}

	return nil
}

// Subject returns the subject events named name are published to.
func (r *Relay) Subject(name types.EventName) string {
	return r.cfg.SubjectPrefix + "." + string(name)
}

// Publish relays a single event. It satisfies types.Handler.
//
// A returned error is reported by the event source (Hooks.OnError for a Manager).
func (r *Relay) Publish(ctx context.Context, ev types.Event) error {
	data, err := Envelope{
		Name:    ev.Name,
		TimerID: ev.TimerID,
		Payload: ev.Raw,
		At:      ev.At,
	}.Encode()
	if err != nil {
		return fmt.Errorf("relay: encode %s event: %w", ev.Name, err)
	}

	subject := r.Subject(ev.Name)

	r.mu.Lock()
	js := r.js
	r.mu.Unlock()

	if js != nil {
		_, err = js.Publish(ctx, subject, data)
	} else {
		err = r.conn.Publish(subject, data)
	}

	if err != nil {
		r.failed.Add(1)
		if natsutil.IsConnectivityError(err) {
			r.logger.Warn("event relay unavailable", "subject", subject, "timer_id", ev.TimerID, "error", err)
		} else {
			r.logger.Error("event relay publish failed", "subject", subject, "timer_id", ev.TimerID, "error", err)
		}

		return fmt.Errorf("relay: publish %s: %w", subject, err)
	}

	r.published.Add(1)
	r.logger.Debug("event relayed", "subject", subject, "timer_id", ev.TimerID)

	return nil
}

// Stats returns how many events were published and how many failed.
func (r *Relay) Stats() (published, failed uint64) {
	return r.published.Load(), r.failed.Load()
}

// Subscribe delivers relayed events published under prefix to h.
//
// Events arrive on the NATS client's delivery goroutine for the subscription,
// one at a time. Undecodable messages and handler errors are logged and
// skipped.
//
// Parameters:
//   - conn: NATS connection
//   - prefix: Subject prefix of the relay (empty uses DefaultSubjectPrefix)
//   - h: Handler receiving decoded events
//   - opts: Optional logger and payload codec
//
// Returns:
//   - *nats.Subscription: Unsubscribe to stop delivery
//   - error: Subscription failure
//
// Example:
//
//	sub, err := relay.Subscribe(nc, "timers", func(ctx context.Context, ev types.Event) error {
//	    log.Printf("%s %s", ev.Name, ev.TimerID)
//	    return nil
//	}, relay.WithCodec(codec.NewJSON()))
//	defer sub.Unsubscribe()
func Subscribe(conn *nats.Conn, prefix string, h types.Handler, opts ...Option) (*nats.Subscription, error) {
	if conn == nil {
		return nil, ErrConnRequired
	}
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	prefix = strings.TrimSuffix(prefix, ".")

	o := applyOptions(opts)

	return conn.Subscribe(prefix+".*", func(msg *nats.Msg) {
		ev, err := toEvent(msg.Data, o.codec)
		if err != nil {
			o.logger.Error("dropping undecodable relayed event", "subject", msg.Subject, "error", err)
			return
		}

		if err := h(context.Background(), ev); err != nil {
			o.logger.Error("relayed event handler failed",
				"event", string(ev.Name),
				"timer_id", ev.TimerID,
				"error", err,
			)
		}
	})
}

func toEvent(data []byte, c types.Codec) (types.Event, error) {
	env, err := DecodeEnvelope(data)
	if err != nil {
		return types.Event{}, err
	}

	ev := types.Event{
		Name:    env.Name,
		TimerID: env.TimerID,
		Raw:     env.Payload,
		At:      env.At,
	}
	if c != nil && len(env.Payload) > 0 {
		if ev.Data, err = codec.DecodeAny(c, env.Payload); err != nil {
			return types.Event{}, err
		}
	}

	return ev, nil
}
