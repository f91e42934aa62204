package deepgram

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PooledSession wraps a Session with the lifecycle state, keep-alive loop
// and idle tracking the pool needs. Transitions follow Idle -> Active ->
// Idle until the session is closed; Closed is terminal.
type PooledSession struct {
	id      string
	session *Session
	metrics *PoolMetrics
	logger  zerolog.Logger

	keepAliveInterval time.Duration
	idleTimeout       time.Duration

	state        int32
	lastActivity int64
	activatedAt  int64

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// PooledSessionOption customizes a PooledSession at construction time.
type PooledSessionOption func(*PooledSession)

// WithPooledSessionLogger attaches a structured logger.
func WithPooledSessionLogger(logger zerolog.Logger) PooledSessionOption {
	return func(ps *PooledSession) {
		ps.logger = logger
	}
}

// NewPooledSession wraps session for pool management. The keep-alive loop
// and the idle check are each disabled when their period is zero.
func NewPooledSession(session *Session, metrics *PoolMetrics, keepAliveInterval, idleTimeout time.Duration, opts ...PooledSessionOption) (*PooledSession, error) {
	if session == nil {
		return nil, NewError(ErrorStatusInvalidArgument, "session cannot be nil")
	}
	if metrics == nil {
		return nil, NewError(ErrorStatusInvalidArgument, "metrics cannot be nil")
	}

	ps := &PooledSession{
		id:                uuid.NewString(),
		session:           session,
		metrics:           metrics,
		logger:            zerolog.Nop(),
		keepAliveInterval: keepAliveInterval,
		idleTimeout:       idleTimeout,
		state:             int32(StateIdle),
		stop:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ps)
	}
	ps.logger = ps.logger.With().Str("session_id", ps.id).Logger()
	ps.touch()

	session.SetOnError(func(err *Error) {
		ps.logger.Error().Err(err).Msg("connection error")
		ps.metrics.RecordError()
		ps.Close()
	})
	session.SetOnClose(func(code int) {
		ps.logger.Debug().Int("code", code).Msg("underlying connection closed")
		ps.Close()
	})

	if keepAliveInterval > 0 {
		ps.wg.Add(1)
		go ps.keepAliveLoop()
	}
	if idleTimeout > 0 {
		ps.wg.Add(1)
		go ps.idleLoop()
	}

	return ps, nil
}

// ID is the pool-unique identifier of this session, used for log
// correlation.
func (ps *PooledSession) ID() string {
	return ps.id
}

// Session exposes the underlying connection for callbacks and streaming.
func (ps *PooledSession) Session() *Session {
	return ps.session
}

// State reports the current lifecycle state.
func (ps *PooledSession) State() State {
	return State(atomic.LoadInt32(&ps.state))
}

// LastActivity reports when the session last saw traffic or a transition.
func (ps *PooledSession) LastActivity() time.Time {
	return time.UnixMilli(atomic.LoadInt64(&ps.lastActivity))
}

func (ps *PooledSession) touch() {
	atomic.StoreInt64(&ps.lastActivity, time.Now().UnixMilli())
}

// Activate transitions the session from Idle to Active for exclusive use by
// one caller. Any other starting state is an error.
func (ps *PooledSession) Activate() error {
	if !atomic.CompareAndSwapInt32(&ps.state, int32(StateIdle), int32(StateActive)) {
		if ps.State() == StateClosed {
			return ErrSessionClosed
		}
		return ErrSessionNotIdle
	}
	ps.touch()
	atomic.StoreInt64(&ps.activatedAt, time.Now().UnixMilli())
	ps.metrics.RecordConnectionAcquired()

	if !ps.session.IsConnected() {
		go func() {
			if err := ps.session.Connect(context.Background()); err != nil {
				ps.logger.Error().Err(err).Msg("reconnect failed")
				ps.metrics.RecordError()
				ps.Close()
			}
		}()
	}
	return nil
}

// Release transitions the session from Active back to Idle and records how
// long the caller held it.
func (ps *PooledSession) Release() error {
	if !atomic.CompareAndSwapInt32(&ps.state, int32(StateActive), int32(StateIdle)) {
		if ps.State() == StateClosed {
			return ErrSessionClosed
		}
		return ErrSessionNotActive
	}
	ps.touch()
	if activated := atomic.LoadInt64(&ps.activatedAt); activated > 0 {
		ps.metrics.RecordUsageTime(time.Now().UnixMilli() - activated)
	}
	ps.metrics.RecordConnectionReleased()
	return nil
}

// SendAudio forwards audio to the underlying session. Only an Active
// session may stream.
func (ps *PooledSession) SendAudio(data []byte) error {
	if ps.State() != StateActive {
		if ps.State() == StateClosed {
			return ErrSessionClosed
		}
		return ErrSessionNotActive
	}
	if err := ps.session.SendAudio(data); err != nil {
		return err
	}
	ps.touch()
	return nil
}

// Close retires the session. It stops the background loops, disconnects the
// socket and updates the gauges. Calling Close again is a no-op.
func (ps *PooledSession) Close() {
	old := atomic.SwapInt32(&ps.state, int32(StateClosed))
	if State(old) == StateClosed {
		return
	}
	ps.stopOnce.Do(func() {
		close(ps.stop)
	})
	ps.session.Disconnect()
	ps.metrics.RecordConnectionClosed()
	ps.logger.Info().Msg("pooled session closed")
}

// awaitShutdown waits for the background loops to exit, up to timeout.
func (ps *PooledSession) awaitShutdown(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		ps.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// keepAliveLoop periodically sends application KeepAlive frames so the
// server does not drop a silent connection. A failed send retires the
// session.
func (ps *PooledSession) keepAliveLoop() {
	defer ps.wg.Done()

	ticker := time.NewTicker(ps.keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ps.stop:
			return
		case <-ticker.C:
			if ps.State() == StateClosed {
				return
			}
			if !ps.session.IsConnected() {
				continue
			}
			if err := ps.session.SendControl(NewKeepAliveMessage()); err != nil {
				ps.logger.Error().Err(err).Msg("keep-alive failed")
				ps.metrics.RecordError()
				ps.Close()
				return
			}
			ps.metrics.RecordKeepAliveSent()
		}
	}
}

// idleLoop closes the session after it has sat idle past the configured
// timeout.
func (ps *PooledSession) idleLoop() {
	defer ps.wg.Done()

	ticker := time.NewTicker(ps.idleTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ps.stop:
			return
		case <-ticker.C:
			if ps.State() != StateIdle {
				continue
			}
			idleFor := time.Since(ps.LastActivity())
			if idleFor >= ps.idleTimeout {
				ps.logger.Info().Dur("idle_for", idleFor).Msg("closing idle session")
				ps.metrics.RecordTimeoutClosure()
				ps.Close()
				return
			}
		}
	}
}
