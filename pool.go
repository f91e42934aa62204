package deepgram

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	acquirePollInterval = 100 * time.Millisecond
	shutdownGrace       = 5 * time.Second
)

// Pool maintains a set of warm transcription sessions so callers avoid the
// connect handshake on the hot path. Sessions move between an idle queue
// and an active set; Acquire and Release are safe for concurrent use.
type Pool struct {
	url     string
	apiKey  string
	config  PoolConfig
	options *AudioStreamOptions
	metrics *PoolMetrics
	logger  zerolog.Logger

	idle chan *PooledSession

	mu     sync.Mutex
	active map[*PooledSession]struct{}

	shutdown int32
}

// PoolOption customizes a Pool at construction time.
type PoolOption func(*Pool)

// WithPoolLogger attaches a structured logger to the pool and the sessions
// it creates. The default logger discards everything.
func WithPoolLogger(logger zerolog.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logger
	}
}

// NewPool creates a pool and eagerly opens the configured number of initial
// sessions. Sessions that fail to connect during warm-up are logged and
// skipped; the pool creates replacements on demand.
func NewPool(url, apiKey string, config *PoolConfig, options *AudioStreamOptions, opts ...PoolOption) (*Pool, error) {
	if strings.TrimSpace(url) == "" {
		return nil, NewError(ErrorStatusInvalidArgument, "url cannot be empty")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, NewError(ErrorStatusInvalidArgument, "api key cannot be empty")
	}
	if config == nil {
		return nil, NewError(ErrorStatusInvalidArgument, "config cannot be nil")
	}
	if options == nil {
		return nil, NewError(ErrorStatusInvalidArgument, "options cannot be nil")
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}

	p := &Pool{
		url:     url,
		apiKey:  apiKey,
		config:  *config,
		options: options,
		metrics: NewPoolMetrics(),
		logger:  zerolog.Nop(),
		idle:    make(chan *PooledSession, config.MaxSize()),
		active:  make(map[*PooledSession]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	for i := 0; i < p.config.InitialSize(); i++ {
		ps, err := p.createSession(context.Background())
		if err != nil {
			p.logger.Error().Err(err).Int("index", i).Msg("failed to create initial session")
			continue
		}
		p.parkIdle(ps)
	}

	p.logger.Info().
		Int("initial_size", p.config.InitialSize()).
		Int("max_size", p.config.MaxSize()).
		Int("warm", len(p.idle)).
		Msg("pool initialized")

	return p, nil
}

// Acquire hands out an idle session, creating one when the pool is below
// its maximum. It polls until the acquire timeout elapses; cancelling ctx
// aborts the wait early. A failed on-demand creation is returned to the
// caller.
func (p *Pool) Acquire(ctx context.Context) (*PooledSession, error) {
	if p.isShutdown() {
		return nil, ErrPoolShutdown
	}

	start := time.Now()
	deadline := start.Add(p.config.AcquireTimeout())

	for {
		if p.isShutdown() {
			return nil, ErrPoolShutdown
		}
		select {
		case <-ctx.Done():
			return nil, NewErrorWithCause(ErrorStatusInterrupted, "acquire interrupted", ctx.Err())
		default:
		}

		var ps *PooledSession
		select {
		case ps = <-p.idle:
		default:
		}

		if ps != nil {
			if ps.State() == StateClosed {
				continue
			}
			if err := ps.Activate(); err != nil {
				if err == ErrSessionClosed {
					continue
				}
				p.offerIdle(ps)
				return nil, err
			}
			p.mu.Lock()
			p.active[ps] = struct{}{}
			p.mu.Unlock()
			p.metrics.RecordAcquisitionTime(time.Since(start).Milliseconds())
			p.logger.Debug().Str("session_id", ps.ID()).Msg("session acquired")
			return ps, nil
		}

		if p.TotalConnections() < p.config.MaxSize() {
			created, err := p.createSession(ctx)
			if err != nil {
				p.logger.Error().Err(err).Msg("failed to grow pool")
				return nil, err
			}
			p.parkIdle(created)
			continue
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			p.metrics.RecordAcquisitionTimeout()
			return nil, ErrAcquireTimeout
		}
		wait := acquirePollInterval
		if remaining < wait {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return nil, NewErrorWithCause(ErrorStatusInterrupted, "acquire interrupted", ctx.Err())
		case <-time.After(wait):
		}
	}
}

// Release returns an acquired session to the pool. A session that fails to
// transition back to idle is closed instead of being requeued.
func (p *Pool) Release(ps *PooledSession) error {
	if ps == nil {
		return NewError(ErrorStatusInvalidArgument, "session cannot be nil")
	}

	p.mu.Lock()
	_, owned := p.active[ps]
	if owned {
		delete(p.active, ps)
	}
	p.mu.Unlock()
	if !owned {
		return ErrNotFromPool
	}

	if p.isShutdown() {
		ps.Close()
		return ErrPoolShutdown
	}

	if err := ps.Release(); err != nil {
		p.logger.Error().Err(err).Str("session_id", ps.ID()).Msg("release failed, closing session")
		ps.Close()
		return nil
	}

	p.offerIdle(ps)
	p.logger.Debug().Str("session_id", ps.ID()).Msg("session released")
	return nil
}

// Close shuts the pool down, closing every session. The first call wins;
// any later call reports the pool as already shut down.
func (p *Pool) Close() error {
	if !atomic.CompareAndSwapInt32(&p.shutdown, 0, 1) {
		return ErrPoolShutdown
	}

	p.logger.Info().Msg("shutting down pool")

	var sessions []*PooledSession
	for {
		select {
		case ps := <-p.idle:
			sessions = append(sessions, ps)
			continue
		default:
		}
		break
	}

	p.mu.Lock()
	for ps := range p.active {
		sessions = append(sessions, ps)
	}
	p.active = make(map[*PooledSession]struct{})
	p.mu.Unlock()

	for _, ps := range sessions {
		ps.Close()
	}

	graceDeadline := time.Now().Add(shutdownGrace)
	for _, ps := range sessions {
		remaining := time.Until(graceDeadline)
		if remaining <= 0 {
			p.logger.Warn().Msg("shutdown grace elapsed before all sessions stopped")
			break
		}
		if !ps.awaitShutdown(remaining) {
			p.logger.Warn().Str("session_id", ps.ID()).Msg("session loops did not stop in time")
		}
	}

	snapshot := p.metrics.Snapshot()
	p.logger.Info().
		Int64("created", snapshot.TotalConnectionsCreated).
		Int64("acquired", snapshot.TotalConnectionsAcquired).
		Int64("errors", snapshot.TotalConnectionErrors).
		Msg("pool shut down")
	return nil
}

// IdleCount reports sessions currently waiting in the queue.
func (p *Pool) IdleCount() int {
	return len(p.idle)
}

// ActiveCount reports sessions currently checked out.
func (p *Pool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}

// TotalConnections reports every live session the pool tracks.
func (p *Pool) TotalConnections() int {
	return p.IdleCount() + p.ActiveCount()
}

// Metrics exposes the pool's metrics registry.
func (p *Pool) Metrics() *PoolMetrics {
	return p.metrics
}

func (p *Pool) isShutdown() bool {
	return atomic.LoadInt32(&p.shutdown) == 1
}

// createSession opens and wraps a new connection, retrying the dial per the
// configured retry budget. A created session counts as active until it is
// parked in the idle queue.
func (p *Pool) createSession(ctx context.Context) (*PooledSession, error) {
	session, err := NewSession(p.url, p.apiKey, WithSessionLogger(p.logger))
	if err != nil {
		return nil, err
	}
	if err := session.SetOptions(p.options); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= p.config.MaxRetries(); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, NewErrorWithCause(ErrorStatusInterrupted, "session creation interrupted", ctx.Err())
			case <-time.After(p.config.RetryDelay()):
			}
		}
		connectCtx, cancel := context.WithTimeout(ctx, DefaultConnectTimeout)
		lastErr = session.Connect(connectCtx)
		cancel()
		if lastErr == nil {
			break
		}
		p.logger.Warn().Err(lastErr).Int("attempt", attempt+1).Msg("connect attempt failed")
	}
	if lastErr != nil {
		p.metrics.RecordError()
		return nil, NewErrorWithCause(ErrorStatusConnectionFailed, "failed to create session", lastErr)
	}

	ps, err := NewPooledSession(session, p.metrics,
		p.config.KeepAliveInterval(), p.config.ConnectionTimeout(),
		WithPooledSessionLogger(p.logger))
	if err != nil {
		session.Disconnect()
		return nil, err
	}

	p.metrics.IncrementActiveConnections()
	p.logger.Debug().Str("session_id", ps.ID()).Msg("session created")
	return ps, nil
}

// parkIdle moves a freshly created session into the idle queue, shifting
// its gauge from active to idle.
func (p *Pool) parkIdle(ps *PooledSession) {
	p.metrics.RecordConnectionReleased()
	p.offerIdle(ps)
}

func (p *Pool) offerIdle(ps *PooledSession) {
	select {
	case p.idle <- ps:
	default:
		// Queue full; the session is surplus to the pool's ceiling.
		ps.Close()
	}
}
