package extract

import (
	"context"
	"errors"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/inodb/vcfnp/internal/table"
)

// WorkItem is one region queued for a worker.
type WorkItem struct {
	Seq    int
	Region Region
}

// WorkResult holds every chunk extracted from one region.
type WorkResult struct {
	Seq    int
	Region Region
	Chunks []*table.Chunk
	Stats  Stats
	Err    error
}

// Factory creates an independent extractor for the given regions. Each call
// must return an extractor with its own index handle and data reader.
type Factory func(regions []Region) (*Extractor, error)

// ExtractParallel extracts regions with a pool of workers, one extractor per
// region, and calls fn for every chunk in ascending region order. If workers
// is 0, runtime.NumCPU() is used. At most 2*workers regions are started
// before the earliest of them has been handed to fn, which bounds the chunks
// held for out-of-order regions. The first error from a worker or from fn
// cancels the remaining work and is returned.
func ExtractParallel(ctx context.Context, regions []Region, workers int, factory Factory, fn func(*table.Chunk) error) (Stats, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	sorted := SortRegions(regions)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	items := make(chan WorkItem)
	results := make(chan WorkResult, 2*workers)
	inFlight := make(chan struct{}, 2*workers)

	g.Go(func() error {
		defer close(items)
		for i, r := range sorted {
			select {
			case inFlight <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			select {
			case items <- WorkItem{Seq: i, Region: r}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for range workers {
		g.Go(func() error {
			for item := range items {
				results <- extractRegion(gctx, factory, item)
			}
			return nil
		})
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- g.Wait()
		close(results)
	}()

	var total Stats
	err := OrderedCollect(results, func(r WorkResult) error {
		defer func() { <-inFlight }()
		if r.Err != nil {
			return r.Err
		}
		total.Add(r.Stats)
		for _, ch := range r.Chunks {
			if err := fn(ch); err != nil {
				return err
			}
		}
		return nil
	}, cancel)
	werr := <-waitErr

	if err != nil {
		return total, err
	}
	if werr != nil && !errors.Is(werr, context.Canceled) {
		return total, werr
	}
	return total, ctx.Err()
}

func extractRegion(ctx context.Context, factory Factory, item WorkItem) WorkResult {
	res := WorkResult{Seq: item.Seq, Region: item.Region}
	if res.Err = ctx.Err(); res.Err != nil {
		return res
	}

	ex, err := factory([]Region{item.Region})
	if err != nil {
		res.Err = err
		return res
	}
	defer ex.Close()

	for {
		if res.Err = ctx.Err(); res.Err != nil {
			return res
		}
		ch, err := ex.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Err = err
			return res
		}
		res.Chunks = append(res.Chunks, ch)
	}
	res.Stats = ex.Stats()
	return res
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed. When fn fails, stop is called
// and the remaining results are drained.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error, stop func()) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				if stop != nil {
					stop()
				}
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
