// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package telemetry instruments a reclaim.Collector's consumer side:
// periodic Collect polling, structured logging of each pass, and an
// OpenTelemetry span per poll. It never wraps allocation or Close — the
// producer hot path stays exactly as fast as the bare reclaim package.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"code.hybscloud.com/reclaim"
)

// Collector wraps a *reclaim.Collector with logging and tracing around each
// poll. It holds no Handle and no reference count of its own.
type Collector struct {
	inner  *reclaim.Collector
	log    *zap.Logger
	tracer string
}

// Wrap returns a telemetry-instrumented view of c. log may be nil, in which
// case zap.NewNop() is used.
func Wrap(c *reclaim.Collector, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{inner: c, log: log, tracer: "code.hybscloud.com/reclaim/telemetry"}
}

// Poll performs one instrumented reclamation pass: a traced, logged call to
// Collect, followed by a snapshot of the Collector's handle and allocation
// counts.
//
// Poll is meant to be called from a single background goroutine on a timer
// — see Run — and must not be called concurrently with another Poll on the
// same wrapped Collector, for the same reason Collect itself requires a
// single caller.
func (c *Collector) Poll(ctx context.Context) {
	tracer := otel.Tracer(c.tracer)
	ctx, span := tracer.Start(ctx, "reclaim.Collect")
	defer span.End()

	start := time.Now()
	c.inner.Collect()
	duration := time.Since(start)

	handles := c.inner.HandleCount()
	allocs := c.inner.AllocCount()

	span.SetAttributes()
	c.log.Debug("reclaim poll",
		zap.Duration("duration", duration),
		zap.Uint64("handles", handles),
		zap.Uint64("allocs", allocs),
	)
	_ = ctx
}

// Run calls Poll every interval until ctx is cancelled. Intended to be
// launched in its own goroutine; it returns when ctx.Done() fires.
func (c *Collector) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("reclaim telemetry stopping", zap.Error(ctx.Err()))
			return
		case <-ticker.C:
			c.Poll(ctx)
		}
	}
}

// TryCleanup wraps the underlying Collector's TryCleanup with a log line on
// both outcomes, so operators can see a Collector teardown attempt in the
// same structured log stream as its poll history.
func (c *Collector) TryCleanup() (bool, error) {
	ok, err := c.inner.TryCleanup()
	if ok {
		c.log.Info("reclaim collector retired")
	} else {
		c.log.Debug("reclaim collector not ready for cleanup", zap.Error(err))
	}
	return ok, err
}
