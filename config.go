package deepgram

import (
	"fmt"
	"time"
)

// Defaults for PoolConfig.
const (
	DefaultInitialPoolSize   = 5
	DefaultMaxPoolSize       = 10
	DefaultKeepAliveInterval = 30 * time.Second
	DefaultConnectionTimeout = time.Hour
	DefaultAcquireTimeout    = 5 * time.Second
	DefaultMaxRetries        = 3
	DefaultRetryDelay        = time.Second
)

// PoolConfig holds the tuning knobs for a connection pool. Fields are
// unexported so the setters can keep the configuration consistent; a zero
// PoolConfig is not usable, start from NewPoolConfig.
type PoolConfig struct {
	initialSize       int
	maxSize           int
	keepAliveInterval time.Duration
	connectionTimeout time.Duration
	acquireTimeout    time.Duration
	maxRetries        int
	retryDelay        time.Duration
}

// NewPoolConfig returns a configuration populated with the defaults.
func NewPoolConfig() *PoolConfig {
	return &PoolConfig{
		initialSize:       DefaultInitialPoolSize,
		maxSize:           DefaultMaxPoolSize,
		keepAliveInterval: DefaultKeepAliveInterval,
		connectionTimeout: DefaultConnectionTimeout,
		acquireTimeout:    DefaultAcquireTimeout,
		maxRetries:        DefaultMaxRetries,
		retryDelay:        DefaultRetryDelay,
	}
}

// DefaultPoolConfig is an alias for NewPoolConfig kept for readability at
// call sites that want to signal "defaults, untouched".
func DefaultPoolConfig() *PoolConfig {
	return NewPoolConfig()
}

// SetInitialSize sets how many sessions the pool creates eagerly. It must
// be non-negative and no larger than the maximum size.
func (c *PoolConfig) SetInitialSize(n int) error {
	if n < 0 {
		return NewError(ErrorStatusInvalidArgument, fmt.Sprintf("initial size must be non-negative, got %d", n))
	}
	if n > c.maxSize {
		return NewError(ErrorStatusInvalidArgument, fmt.Sprintf("initial size %d exceeds max size %d", n, c.maxSize))
	}
	c.initialSize = n
	return nil
}

// SetMaxSize sets the ceiling on pool sessions. It must be positive and at
// least the initial size.
func (c *PoolConfig) SetMaxSize(n int) error {
	if n <= 0 {
		return NewError(ErrorStatusInvalidArgument, fmt.Sprintf("max size must be positive, got %d", n))
	}
	if n < c.initialSize {
		return NewError(ErrorStatusInvalidArgument, fmt.Sprintf("max size %d is below initial size %d", n, c.initialSize))
	}
	c.maxSize = n
	return nil
}

// SetKeepAliveInterval sets the period between KeepAlive frames on idle
// sessions. Zero disables keep-alives.
func (c *PoolConfig) SetKeepAliveInterval(d time.Duration) error {
	if d < 0 {
		return NewError(ErrorStatusInvalidArgument, "keep-alive interval must be non-negative")
	}
	c.keepAliveInterval = d
	return nil
}

// SetConnectionTimeout sets how long a session may sit idle before the pool
// closes it. Zero disables idle closure.
func (c *PoolConfig) SetConnectionTimeout(d time.Duration) error {
	if d < 0 {
		return NewError(ErrorStatusInvalidArgument, "connection timeout must be non-negative")
	}
	c.connectionTimeout = d
	return nil
}

// SetAcquireTimeout sets how long Acquire waits for a session before giving
// up.
func (c *PoolConfig) SetAcquireTimeout(d time.Duration) error {
	if d < 0 {
		return NewError(ErrorStatusInvalidArgument, "acquire timeout must be non-negative")
	}
	c.acquireTimeout = d
	return nil
}

// SetMaxRetries sets how many times a failed session connect is retried.
func (c *PoolConfig) SetMaxRetries(n int) error {
	if n < 0 {
		return NewError(ErrorStatusInvalidArgument, fmt.Sprintf("max retries must be non-negative, got %d", n))
	}
	c.maxRetries = n
	return nil
}

// SetRetryDelay sets the pause between connect retries.
func (c *PoolConfig) SetRetryDelay(d time.Duration) error {
	if d < 0 {
		return NewError(ErrorStatusInvalidArgument, "retry delay must be non-negative")
	}
	c.retryDelay = d
	return nil
}

// InitialSize reports the eager session count.
func (c *PoolConfig) InitialSize() int { return c.initialSize }

// MaxSize reports the pool ceiling.
func (c *PoolConfig) MaxSize() int { return c.maxSize }

// KeepAliveInterval reports the keep-alive period.
func (c *PoolConfig) KeepAliveInterval() time.Duration { return c.keepAliveInterval }

// ConnectionTimeout reports the idle closure timeout.
func (c *PoolConfig) ConnectionTimeout() time.Duration { return c.connectionTimeout }

// AcquireTimeout reports the acquisition deadline.
func (c *PoolConfig) AcquireTimeout() time.Duration { return c.acquireTimeout }

// MaxRetries reports the connect retry budget.
func (c *PoolConfig) MaxRetries() int { return c.maxRetries }

// RetryDelay reports the pause between connect retries.
func (c *PoolConfig) RetryDelay() time.Duration { return c.retryDelay }
