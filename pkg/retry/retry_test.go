package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:      maxRetries,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     20 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", config.MaxRetries)
	}
	if config.InitialInterval != time.Second {
		t.Errorf("InitialInterval = %v, want 1s", config.InitialInterval)
	}
	if config.Multiplier != 2.0 {
		t.Errorf("Multiplier = %f, want 2.0", config.Multiplier)
	}
}

func TestNew_FillsZeroValues(t *testing.T) {
	original := &Config{JitterFactor: 3}
	retrier := New(original)

	if retrier.config.InitialInterval != time.Second {
		t.Errorf("InitialInterval = %v, want 1s", retrier.config.InitialInterval)
	}
	if retrier.config.MaxInterval != 30*time.Second {
		t.Errorf("MaxInterval = %v, want 30s", retrier.config.MaxInterval)
	}
	if retrier.config.JitterFactor != 1 {
		t.Errorf("JitterFactor = %f, want clamped to 1", retrier.config.JitterFactor)
	}
	if original.InitialInterval != 0 {
		t.Error("New must not mutate the caller's config")
	}
}

func TestRetrier_Do(t *testing.T) {
	errTransient := errors.New("transient")
	errFatal := errors.New("fatal")

	tests := []struct {
		name         string
		maxRetries   int
		failures     int
		failWith     error
		wantErr      error
		wantAttempts int
	}{
		{name: "first try succeeds", maxRetries: 3, failures: 0, wantAttempts: 1},
		{name: "succeeds after retries", maxRetries: 3, failures: 2, failWith: errTransient, wantAttempts: 3},
		{name: "retries exhausted", maxRetries: 2, failures: 10, failWith: errTransient, wantErr: ErrMaxRetriesExceeded, wantAttempts: 3},
		{name: "permanent error stops", maxRetries: 5, failures: 10, failWith: Permanent(errFatal), wantErr: errFatal, wantAttempts: 1},
		{name: "no retries configured", maxRetries: 0, failures: 1, failWith: errTransient, wantErr: ErrMaxRetriesExceeded, wantAttempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			result := New(fastConfig(tt.maxRetries)).Do(context.Background(), func(ctx context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			})

			if !errors.Is(result.Err, tt.wantErr) && result.Err != tt.wantErr {
				t.Errorf("Err = %v, want %v", result.Err, tt.wantErr)
			}
			if result.Attempts != tt.wantAttempts {
				t.Errorf("Attempts = %d, want %d", result.Attempts, tt.wantAttempts)
			}
			if calls != tt.wantAttempts {
				t.Errorf("operation called %d times, want %d", calls, tt.wantAttempts)
			}
		})
	}
}

func TestRetrier_Do_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	config := fastConfig(10)
	config.InitialInterval = time.Second
	config.MaxInterval = time.Second

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result := New(config).Do(ctx, func(ctx context.Context) error {
		return errors.New("still failing")
	})

	if result.Err != ErrContextCanceled {
		t.Errorf("Err = %v, want ErrContextCanceled", result.Err)
	}
	if result.LastError == nil {
		t.Error("LastError should keep the last operation error")
	}
}

func TestRetrier_DoWithCallback(t *testing.T) {
	var seen []int
	New(fastConfig(2)).DoWithCallback(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	}, func(attempt int, err error, next time.Duration) {
		seen = append(seen, attempt)
		if next <= 0 {
			t.Errorf("next interval = %v, want > 0", next)
		}
	})

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("callback attempts = %v, want [1 2]", seen)
	}
}

func TestRetrier_Interval(t *testing.T) {
	retrier := New(&Config{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
	})

	expected := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for attempt, want := range expected {
		if got := retrier.Interval(attempt); got != want {
			t.Errorf("Interval(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestRetrier_Interval_Jitter(t *testing.T) {
	retrier := New(&Config{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.5,
	})

	for i := 0; i < 50; i++ {
		got := retrier.Interval(0)
		if got < 50*time.Millisecond || got > 150*time.Millisecond {
			t.Fatalf("Interval(0) = %v, want within 50ms..150ms", got)
		}
	}
}

func TestPermanent(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}

	base := errors.New("bad input")
	err := Permanent(base)
	if !IsPermanent(err) {
		t.Error("IsPermanent should report a wrapped permanent error")
	}
	if !errors.Is(err, base) {
		t.Error("Permanent should unwrap to the original error")
	}
	if IsPermanent(base) {
		t.Error("plain error should not be permanent")
	}
}
