// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command reclaimdemo exercises the reclaim package end to end: several
// independent Collectors, each standing in for one audio-style channel,
// with producer goroutines allocating and closing smart pointers while a
// single housekeeping goroutine services whichever channel is next due for
// a reclamation pass.
//
// This program is not part of the reclaim library's public surface or its
// guarantees — it exists purely to drive the library under realistic
// logging, tracing, and scheduling plumbing.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/addrummond/heap"
	"github.com/gammazero/deque"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"code.hybscloud.com/reclaim"
	"code.hybscloud.com/reclaim/telemetry"
)

func main() {
	channels := flag.Int("channels", 4, "number of simulated channels, one Collector each")
	producers := flag.Int("producers", 3, "producer goroutines per channel")
	pollInterval := flag.Duration("poll-interval", 5*time.Millisecond, "base housekeeping interval per channel")
	runFor := flag.Duration("duration", 2*time.Second, "how long to run before shutting down")
	ringSize := flag.Int("diagnostics-ring", 32, "bounded diagnostics ring size")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "reclaimdemo: logger init:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		logger.Fatal("tracer exporter init", zap.Error(err))
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	defer tp.Shutdown(context.Background())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelAfter := context.WithTimeout(ctx, *runFor)
	defer cancelAfter()

	d := newDemo(*channels, *producers, *ringSize, logger)
	d.run(ctx, *pollInterval)
	d.report()
}

// channel bundles one Collector with its producer goroutines and a bounded
// ring of recent reclamation events, standing in for one independent audio
// stream in the simulated system.
type channel struct {
	id        int
	collector *telemetry.Collector
	raw       *reclaim.Collector
	handle    reclaim.Handle
	diag      deque.Deque[diagEvent]
	ringCap   int
}

type diagEvent struct {
	at       time.Time
	reclaims uint64
}

// dueEntry is one row in the scheduler's due-time heap: the next moment a
// channel's Collector should be serviced.
type dueEntry struct {
	channelID int
	at        time.Time
}

func (a *dueEntry) Cmp(b *dueEntry) int {
	if a.at.Before(b.at) {
		return -1
	}
	if a.at.After(b.at) {
		return 1
	}
	return 0
}

type demo struct {
	channels     []*channel
	producersPer int
	logger       *zap.Logger
	producerWG   sync.WaitGroup
	schedulerWG  sync.WaitGroup
}

func newDemo(numChannels, producersPer, ringCap int, logger *zap.Logger) *demo {
	d := &demo{
		producersPer: producersPer,
		logger:       logger,
	}
	for i := range numChannels {
		raw := reclaim.NewCollector()
		d.channels = append(d.channels, &channel{
			id:        i,
			raw:       raw,
			handle:    raw.Handle(),
			collector: telemetry.Wrap(raw, logger.With(zap.Int("channel", i))),
			ringCap:   ringCap,
		})
	}
	return d
}

// payload is what producers allocate: large enough that closing it matters,
// small enough not to dominate the demo's own memory footprint.
type payload struct {
	samples [256]float32
}

func (p payload) CloneValue() payload { return p }

func (d *demo) runProducers(ctx context.Context) {
	for _, ch := range d.channels {
		for range d.producersPer {
			d.producerWG.Add(1)
			go func(ch *channel, h reclaim.Handle) {
				defer d.producerWG.Done()
				defer h.Release()
				for {
					select {
					case <-ctx.Done():
						return
					default:
					}
					switch rand.Intn(3) {
					case 0:
						o := reclaim.NewOwned(h, payload{})
						o.Close()
					case 1:
						s := reclaim.NewShared(h, payload{})
						clone := s.Clone()
						clone.Close()
						s.Close()
					default:
						o := reclaim.NewOwned(h, payload{})
						clone := reclaim.CloneOwned(o)
						clone.Close()
						o.Close()
					}
					time.Sleep(time.Microsecond * time.Duration(50+rand.Intn(200)))
				}
			}(ch, ch.handle.Clone())
		}
	}
}

// run drives producers on every channel and a single housekeeping goroutine
// that services whichever channel's next poll is soonest due, until ctx is
// cancelled.
func (d *demo) run(ctx context.Context, baseInterval time.Duration) {
	d.runProducers(ctx)

	d.schedulerWG.Add(1)
	go func() {
		defer d.schedulerWG.Done()
		d.schedule(ctx, baseInterval)
	}()

	<-ctx.Done()
	d.producerWG.Wait()
	d.schedulerWG.Wait()

	for _, ch := range d.channels {
		ch.handle.Release()
		ch.raw.Collect()
		if ok, err := ch.raw.TryCleanup(); !ok {
			d.logger.Warn("channel did not reach a clean shutdown state",
				zap.Int("channel", ch.id), zap.Error(err))
		}
	}
}

func (d *demo) schedule(ctx context.Context, baseInterval time.Duration) {
	var due heap.Heap[dueEntry, heap.Min]
	now := time.Now()
	for _, ch := range d.channels {
		heap.PushOrderable(&due, dueEntry{channelID: ch.id, at: now.Add(baseInterval)})
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		next, ok := heap.Peek(&due)
		if !ok {
			return
		}
		wait := time.Until(next.at)
		if wait > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
		heap.PopOrderable(&due)

		ch := d.channels[next.channelID]
		before := ch.raw.AllocCount()
		ch.collector.Poll(ctx)
		after := ch.raw.AllocCount()
		reclaimed := uint64(0)
		if before > after {
			reclaimed = before - after
		}
		d.recordDiag(ch, reclaimed)

		heap.PushOrderable(&due, dueEntry{channelID: ch.id, at: time.Now().Add(baseInterval)})
	}
}

func (d *demo) recordDiag(ch *channel, reclaimed uint64) {
	ch.diag.PushBack(diagEvent{at: time.Now(), reclaims: reclaimed})
	for ch.diag.Len() > ch.ringCap {
		ch.diag.PopFront()
	}
}

// report prints a per-channel summary, sorted by total reclamations, using
// the diagnostics ring each channel accumulated during the run.
func (d *demo) report() {
	type summary struct {
		id    int
		total uint64
	}
	summaries := make([]summary, 0, len(d.channels))
	for _, ch := range d.channels {
		var total uint64
		for i := range ch.diag.Len() {
			total += ch.diag.At(i).reclaims
		}
		summaries = append(summaries, summary{id: ch.id, total: total})
	}

	slices.SortFunc(summaries, func(a, b summary) int {
		if a.total != b.total {
			if a.total < b.total {
				return 1
			}
			return -1
		}
		return a.id - b.id
	})

	for _, s := range summaries {
		fmt.Printf("channel %d: %d reclaimed\n", s.id, s.total)
	}
}
