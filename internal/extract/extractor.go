// Package extract drives VCF records through a flattener into fixed-size
// chunks, either over a whole file or over indexed genomic regions.
package extract

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"go.uber.org/zap"

	"github.com/inodb/vcfnp/internal/flatten"
	"github.com/inodb/vcfnp/internal/index"
	"github.com/inodb/vcfnp/internal/schema"
	"github.com/inodb/vcfnp/internal/table"
	"github.com/inodb/vcfnp/internal/vcf"
)

// DefaultChunkSize is the number of rows per chunk when none is configured.
const DefaultChunkSize = 10000

// UnresolvedRegionError reports a region whose chromosome is not in the index.
type UnresolvedRegionError struct {
	Region Region
}

func (e *UnresolvedRegionError) Error() string {
	return fmt.Sprintf("region %s: chromosome %s not in index", e.Region, e.Region.Chrom)
}

// BlockIndex resolves regions to byte ranges of the data file.
type BlockIndex interface {
	Resolve(chrom string, start, end int64) ([]index.ByteRange, error)
	HasChromosome(name string) bool
}

// Source bundles the collaborators an Extractor reads from. Records is used
// for whole-file extraction; Index and Data are required for regions.
type Source struct {
	Records vcf.VariantParser
	Index   BlockIndex
	Data    io.ReaderAt
}

// Stats counts what an extraction has processed so far.
type Stats struct {
	Records        int // records read and flattened
	Rows           int // rows emitted in chunks
	SkippedRecords int // records dropped under the Skip policy
	SkippedRegions int // regions whose chromosome is not indexed
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Records += o.Records
	s.Rows += o.Rows
	s.SkippedRecords += o.SkippedRecords
	s.SkippedRegions += o.SkippedRegions
}

// rowBuilder is implemented by flatten.VariantFlattener and
// flatten.CallBuilder.
type rowBuilder interface {
	Columns() []schema.Descriptor
	Flatten(v *vcf.Variant) ([]schema.Row, error)
	Skipped() int
	SetLogger(l *zap.Logger)
}

type state int

const (
	stateIdle state = iota
	stateSeeking
	stateStreaming
	stateFlushing
	stateDone
)

// Extractor is a pull iterator over chunks. It is not safe for concurrent
// use; parallel extraction runs one Extractor per worker.
type Extractor struct {
	src     Source
	cfg     config
	builder rowBuilder
	buf     *table.Buffer
	logger  *zap.Logger
	closers []io.Closer

	state      state
	afterFlush state
	regions    []Region
	next       int
	current    *Region
	records    vcf.VariantParser
	pending    []schema.Row
	stats      Stats
	parseSkips int
}

// New creates an extractor reading from src with the schema in reg.
func New(src Source, reg *schema.Registry, opts ...Option) (*Extractor, error) {
	cfg := config{kind: schema.Variants, chunkSize: DefaultChunkSize, valuesPerRow: table.DefaultValuesPerRow}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", cfg.chunkSize)
	}

	e := &Extractor{src: src, cfg: cfg, logger: cfg.logger, closers: cfg.closers}
	if len(cfg.regions) > 0 {
		if src.Index == nil || src.Data == nil {
			return nil, errors.New("region extraction requires an index and a seekable data file")
		}
		e.regions = SortRegions(cfg.regions)
	} else if src.Records == nil {
		return nil, errors.New("whole-file extraction requires a record reader")
	}

	fopts := flatten.Options{Decompose: cfg.decompose, Policy: cfg.policy, Normalizer: cfg.normalizer}
	var err error
	switch cfg.kind {
	case schema.Calls:
		e.builder, err = flatten.NewCallBuilder(reg, cfg.fields, cfg.samples, fopts)
	default:
		e.builder, err = flatten.NewVariantFlattener(reg, cfg.kind, cfg.fields, fopts)
	}
	if err != nil {
		return nil, err
	}
	e.builder.SetLogger(e.logger)

	if e.buf, err = table.NewBuffer(e.builder.Columns(), cfg.chunkSize, table.WithValuesPerRow(cfg.valuesPerRow)); err != nil {
		return nil, err
	}
	return e, nil
}

// Columns returns the schema of every chunk.
func (e *Extractor) Columns() []schema.Descriptor {
	return e.builder.Columns()
}

// Stats returns the counters accumulated so far.
func (e *Extractor) Stats() Stats {
	s := e.stats
	s.SkippedRecords = e.builder.Skipped() + e.parseSkips
	return s
}

// Close releases resources handed to the extractor with WithCloser.
func (e *Extractor) Close() error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c.Close())
	}
	e.closers = nil
	return errors.Join(errs...)
}

// Next returns the next chunk, or io.EOF once every region is exhausted.
// Chunks are never empty and never span two regions.
func (e *Extractor) Next() (*table.Chunk, error) {
	for {
		switch e.state {
		case stateIdle:
			if e.regions == nil {
				e.records = e.src.Records
				e.state = stateStreaming
			} else {
				e.state = stateSeeking
			}

		case stateSeeking:
			if err := e.seek(); err != nil {
				e.state = stateDone
				return nil, err
			}

		case stateStreaming:
			if err := e.stream(); err != nil {
				e.state = stateDone
				return nil, err
			}

		case stateFlushing:
			ch := e.buf.Flush()
			e.stats.Rows += ch.Len()
			e.state = e.afterFlush
			return ch, nil

		case stateDone:
			return nil, io.EOF
		}
	}
}

// All returns the remaining chunks as a sequence. Iteration stops after the
// first error.
func (e *Extractor) All() iter.Seq2[*table.Chunk, error] {
	return func(yield func(*table.Chunk, error) bool) {
		for {
			ch, err := e.Next()
			if err == io.EOF {
				return
			}
			if !yield(ch, err) || err != nil {
				return
			}
		}
	}
}

// seek moves to the next region that resolves to at least one byte range.
func (e *Extractor) seek() error {
	for e.next < len(e.regions) {
		r := e.regions[e.next]
		e.next++

		if !e.src.Index.HasChromosome(r.Chrom) {
			e.stats.SkippedRegions++
			e.logger.Warn("skipping region", zap.Error(&UnresolvedRegionError{Region: r}))
			continue
		}
		ranges, err := e.src.Index.Resolve(r.Chrom, r.Start, r.End)
		if err != nil {
			return fmt.Errorf("resolve region %s: %w", r, err)
		}
		if len(ranges) == 0 {
			e.logger.Debug("region has no records", zap.Stringer("region", r))
			continue
		}

		e.current = &r
		e.records = newRangeParser(e.src.Data, ranges)
		e.buf.SetRegion(r.String())
		e.state = stateStreaming
		return nil
	}
	e.state = stateDone
	return nil
}

// stream fills the buffer until it is full or the current region ends.
func (e *Extractor) stream() error {
	for {
		for len(e.pending) > 0 {
			if e.buf.Full() {
				e.flushThen(stateStreaming)
				return nil
			}
			if err := e.buf.Append(e.pending[0]); err != nil {
				var cee *table.CapacityExceededError
				if errors.As(err, &cee) && e.buf.Len() > 0 {
					e.flushThen(stateStreaming)
					return nil
				}
				return err
			}
			e.pending = e.pending[1:]
		}

		v, err := e.records.Next()
		if err != nil {
			var pe *vcf.ParseError
			if e.cfg.policy == flatten.Skip && errors.As(err, &pe) {
				e.parseSkips++
				e.logger.Warn("skipping unparseable record", zap.Error(err))
				continue
			}
			return err
		}
		if v == nil {
			e.endRegion()
			return nil
		}
		if e.current != nil && !e.current.Contains(v.Pos) {
			continue
		}

		rows, err := e.builder.Flatten(v)
		if err != nil {
			return err
		}
		e.stats.Records++
		e.pending = rows
	}
}

func (e *Extractor) endRegion() {
	next := stateDone
	if e.regions != nil {
		next = stateSeeking
	}
	e.current = nil
	e.records = nil
	if e.buf.Len() > 0 {
		e.flushThen(next)
		return
	}
	e.state = next
}

func (e *Extractor) flushThen(next state) {
	e.state = stateFlushing
	e.afterFlush = next
}
