package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/cloudnav/internal/logger"
)

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) Ping(ctx context.Context) *redis.StatusCmd {
	p.calls++
	cmd := redis.NewStatusCmd(ctx, "ping")
	if p.calls <= p.failures {
		cmd.SetErr(errors.New("connection refused"))
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

func testOptions() ConnectOptions {
	return ConnectOptions{
		Addr:           "localhost:6379",
		ConnectTimeout: time.Second,
		RetryInterval:  time.Millisecond,
		MaxWait:        4 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestWaitReadyRetriesUntilPong(t *testing.T) {
	p := &flakyPinger{failures: 3}
	if err := waitReady(context.Background(), p, testOptions(), logger.Nop()); err != nil {
		t.Fatalf("waitReady() error = %v", err)
	}
	if p.calls != 4 {
		t.Errorf("calls = %d, want 4", p.calls)
	}
}

func TestWaitReadyGivesUp(t *testing.T) {
	opts := testOptions()
	opts.ConnectTimeout = 20 * time.Millisecond
	p := &flakyPinger{failures: 1 << 30}

	err := waitReady(context.Background(), p, opts, logger.Nop())
	if err == nil {
		t.Fatal("waitReady() should fail when redis never answers")
	}
	if p.calls < 2 {
		t.Errorf("calls = %d, want at least 2 attempts", p.calls)
	}
}

func TestWaitReadyHonoursCallerContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &flakyPinger{failures: 1 << 30}
	if err := waitReady(ctx, p, testOptions(), logger.Nop()); err == nil {
		t.Fatal("waitReady() should stop on a cancelled context")
	}
}

func TestNextWait(t *testing.T) {
	tests := []struct {
		wait, max, want time.Duration
	}{
		{time.Second, 10 * time.Second, 2 * time.Second},
		{4 * time.Second, 5 * time.Second, 5 * time.Second},
		{5 * time.Second, 5 * time.Second, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := nextWait(tt.wait, tt.max); got != tt.want {
			t.Errorf("nextWait(%v, %v) = %v, want %v", tt.wait, tt.max, got, tt.want)
		}
	}
}

func TestConnectOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConnectOptions)
	}{
		{"empty addr", func(o *ConnectOptions) { o.Addr = "" }},
		{"zero connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }},
		{"zero retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }},
		{"max wait below retry", func(o *ConnectOptions) { o.MaxWait = 0 }},
		{"zero ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }},
		{"negative warn threshold", func(o *ConnectOptions) { o.WarnThreshold = -1 }},
	}
	if err := testOptions().validate(); err != nil {
		t.Fatalf("valid options rejected: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testOptions()
			tt.mutate(&o)
			if err := o.validate(); err == nil {
				t.Error("validate() should fail")
			}
		})
	}
}
