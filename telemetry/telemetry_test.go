// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package telemetry_test

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"code.hybscloud.com/reclaim"
	"code.hybscloud.com/reclaim/telemetry"
)

func TestCollectorPollReclaims(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	defer tp.Shutdown(context.Background())
	otel.SetTracerProvider(tp)

	c := reclaim.NewCollector()
	h := c.Handle()
	defer h.Release()

	o := reclaim.NewOwned(h, 1)
	o.Close()

	wrapped := telemetry.Wrap(c, zaptest.NewLogger(t))
	wrapped.Poll(context.Background())

	if got := c.AllocCount(); got != 0 {
		t.Fatalf("AllocCount after Poll: got %d, want 0", got)
	}
}

func TestCollectorRunStopsOnCancel(t *testing.T) {
	c := reclaim.NewCollector()
	h := c.Handle()
	defer h.Release()

	wrapped := telemetry.Wrap(c, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		wrapped.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestCollectorTryCleanupLogsOutcome(t *testing.T) {
	c := reclaim.NewCollector()
	wrapped := telemetry.Wrap(c, zaptest.NewLogger(t))

	h := c.Handle()
	if ok, err := wrapped.TryCleanup(); ok || err == nil {
		t.Fatalf("TryCleanup with live handle: got (%v, %v), want (false, non-nil)", ok, err)
	}
	h.Release()

	ok, err := wrapped.TryCleanup()
	if !ok || err != nil {
		t.Fatalf("TryCleanup after release: got (%v, %v), want (true, nil)", ok, err)
	}
}
