package deepgram

import (
	"testing"
	"time"
)

func TestPoolConfigDefaults(t *testing.T) {
	cfg := NewPoolConfig()

	if cfg.InitialSize() != DefaultInitialPoolSize {
		t.Errorf("expected initial size %d, got %d", DefaultInitialPoolSize, cfg.InitialSize())
	}
	if cfg.MaxSize() != DefaultMaxPoolSize {
		t.Errorf("expected max size %d, got %d", DefaultMaxPoolSize, cfg.MaxSize())
	}
	if cfg.KeepAliveInterval() != DefaultKeepAliveInterval {
		t.Errorf("expected keep-alive interval %v, got %v", DefaultKeepAliveInterval, cfg.KeepAliveInterval())
	}
	if cfg.ConnectionTimeout() != DefaultConnectionTimeout {
		t.Errorf("expected connection timeout %v, got %v", DefaultConnectionTimeout, cfg.ConnectionTimeout())
	}
	if cfg.AcquireTimeout() != DefaultAcquireTimeout {
		t.Errorf("expected acquire timeout %v, got %v", DefaultAcquireTimeout, cfg.AcquireTimeout())
	}
	if cfg.MaxRetries() != DefaultMaxRetries {
		t.Errorf("expected max retries %d, got %d", DefaultMaxRetries, cfg.MaxRetries())
	}
	if cfg.RetryDelay() != DefaultRetryDelay {
		t.Errorf("expected retry delay %v, got %v", DefaultRetryDelay, cfg.RetryDelay())
	}
}

func TestSetInitialSize(t *testing.T) {
	cfg := NewPoolConfig()

	if err := cfg.SetInitialSize(0); err != nil {
		t.Errorf("zero initial size should be allowed: %v", err)
	}
	if err := cfg.SetInitialSize(7); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if cfg.InitialSize() != 7 {
		t.Errorf("expected 7, got %d", cfg.InitialSize())
	}

	if err := cfg.SetInitialSize(-1); err == nil {
		t.Error("expected error for negative initial size")
	}
	if err := cfg.SetInitialSize(cfg.MaxSize() + 1); err == nil {
		t.Error("expected error for initial size above max size")
	}
	if cfg.InitialSize() != 7 {
		t.Errorf("failed setter should not modify config, got %d", cfg.InitialSize())
	}
}

func TestSetMaxSize(t *testing.T) {
	cfg := NewPoolConfig()

	if err := cfg.SetMaxSize(20); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := cfg.SetMaxSize(0); err == nil {
		t.Error("expected error for zero max size")
	}
	if err := cfg.SetMaxSize(cfg.InitialSize() - 1); err == nil {
		t.Error("expected error for max size below initial size")
	}
	if cfg.MaxSize() != 20 {
		t.Errorf("failed setter should not modify config, got %d", cfg.MaxSize())
	}
}

func TestDurationSetters(t *testing.T) {
	cfg := NewPoolConfig()

	setters := []struct {
		name string
		set  func(time.Duration) error
		get  func() time.Duration
	}{
		{name: "keep-alive", set: cfg.SetKeepAliveInterval, get: cfg.KeepAliveInterval},
		{name: "connection timeout", set: cfg.SetConnectionTimeout, get: cfg.ConnectionTimeout},
		{name: "acquire timeout", set: cfg.SetAcquireTimeout, get: cfg.AcquireTimeout},
		{name: "retry delay", set: cfg.SetRetryDelay, get: cfg.RetryDelay},
	}

	for _, s := range setters {
		t.Run(s.name, func(t *testing.T) {
			if err := s.set(2 * time.Second); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.get() != 2*time.Second {
				t.Errorf("expected 2s, got %v", s.get())
			}
			if err := s.set(0); err != nil {
				t.Errorf("zero should disable, not error: %v", err)
			}
			if err := s.set(-time.Second); err == nil {
				t.Error("expected error for negative duration")
			}
		})
	}
}

func TestSetMaxRetries(t *testing.T) {
	cfg := NewPoolConfig()

	if err := cfg.SetMaxRetries(0); err != nil {
		t.Errorf("zero retries should be allowed: %v", err)
	}
	if err := cfg.SetMaxRetries(-1); err == nil {
		t.Error("expected error for negative retries")
	}
}
