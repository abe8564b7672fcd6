package resilience

import (
	"testing"
	"time"
)

func TestNormalizeFillsPersistenceDefaults(t *testing.T) {
	cfg := Config{}.normalize()
	if cfg.RetryMaxAttempts != 3 {
		t.Fatalf("RetryMaxAttempts = %d, want 3", cfg.RetryMaxAttempts)
	}
	if cfg.RetryInitialBackoff != 50*time.Millisecond {
		t.Fatalf("RetryInitialBackoff = %v", cfg.RetryInitialBackoff)
	}
	if cfg.RetryMaxBackoff != 2*time.Second {
		t.Fatalf("RetryMaxBackoff = %v", cfg.RetryMaxBackoff)
	}
	if cfg.BreakerOpenTimeout != 20*time.Second {
		t.Fatalf("BreakerOpenTimeout = %v", cfg.BreakerOpenTimeout)
	}
}

func TestNormalizeKeepsSingleAttemptConfigs(t *testing.T) {
	cfg := Config{RetryMaxAttempts: 1, BreakerEnabled: true}.normalize()
	if cfg.RetryMaxAttempts != 1 {
		t.Fatalf("a breaker-only config must keep RetryMaxAttempts 1, got %d", cfg.RetryMaxAttempts)
	}
}

func TestNormalizeRaisesMaxBackoffToInitial(t *testing.T) {
	cfg := Config{
		RetryInitialBackoff: 500 * time.Millisecond,
		RetryMaxBackoff:     100 * time.Millisecond,
	}.normalize()
	if cfg.RetryMaxBackoff != 500*time.Millisecond {
		t.Fatalf("RetryMaxBackoff = %v, want raised to initial", cfg.RetryMaxBackoff)
	}
}
