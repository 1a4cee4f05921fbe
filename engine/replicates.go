package engine

import (
	"context"

	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"

	"gmbp/prng"
	"gmbp/sink"
	"gmbp/system"
)

// Factory builds an independent System for replicate rep. Each replicate
// needs its own System because Custom rates may own a loaded plugin handle,
// and transitions carry per-System release funcs so that handle is never
// shared across concurrently running replicates.
type Factory func(rep int64) (*system.System, error)

// RunReplicates runs n independent replicates, at most workers of them
// simulating at once (golang.org/x/sync/errgroup), each with its own PRNG
// source seeded by seedFor(rep). Their per-row output channels are merged
// with channerics.Merge and appended to out via a single writer goroutine,
// so out is never touched concurrently even though every replicate shares
// one output destination here.
//
// grid is the shared observation grid; nBins/margin parameterize envelope
// construction for inhomogeneous replicates. The first replicate error
// cancels every other replicate via ctx.
func RunReplicates(
	ctx context.Context,
	n int,
	workers int,
	factory Factory,
	seedFor func(rep int64) *int64,
	grid []float64,
	nBins int,
	margin float64,
	out sink.Sink,
) error {
	if workers <= 0 {
		workers = 1
	}

	rowChans := make([]<-chan sink.Row, 0, n)
	var chans []chan sink.Row

	g, gctx := errgroup.WithContext(ctx)
	// Concurrency is bounded inside each goroutine rather than by
	// g.SetLimit, so launching never blocks before the merge below starts
	// draining the row channels.
	sem := make(chan struct{}, workers)

	for rep := int64(0); rep < int64(n); rep++ {
		rep := rep
		rows := make(chan sink.Row, 64)
		chans = append(chans, rows)
		rowChans = append(rowChans, rows)

		g.Go(func() error {
			defer close(rows)

			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			sys, err := factory(rep)
			if err != nil {
				return err
			}
			defer func() { _ = sys.Close() }()

			if err := sys.Freeze(); err != nil {
				return err
			}

			src := prng.New(seedFor(rep))
			repSink := &channelSink{ch: rows}
			sim := NewSimulator(sys, src, repSink, rep, true)

			_, err = sim.Simulate(gctx, grid, nBins, margin)
			return err
		})
	}

	done := make(chan struct{})
	defer close(done)
	merged := channerics.Merge(done, rowChans...)

	writeErrs := make(chan error, 1)
	go func() {
		for row := range merged {
			if err := out.WriteRow(row); err != nil {
				writeErrs <- err
				return
			}
		}
		writeErrs <- nil
	}()

	runErr := g.Wait()
	// Draining merged to completion requires all producer channels closed,
	// which g.Wait() guarantees (every goroutine closes its rows channel
	// via defer, on every exit path).
	writeErr := <-writeErrs

	if runErr != nil {
		return runErr
	}
	return writeErr
}

// channelSink adapts a chan sink.Row to the sink.Sink interface for a
// single replicate goroutine to publish its rows onto, for fan-in by
// RunReplicates.
type channelSink struct {
	ch chan<- sink.Row
}

func (c *channelSink) WriteRow(row sink.Row) error {
	// The simulator mutates its state vector in place and keeps running
	// past this call; since rows is buffered, a send may outlive the
	// backing array's current contents, so clone before handing it off.
	row.State = row.State.Clone()
	c.ch <- row
	return nil
}

func (c *channelSink) Close() error { return nil }
