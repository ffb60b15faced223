package extract

import (
	"io"

	"go.uber.org/zap"

	"github.com/inodb/vcfnp/internal/flatten"
	"github.com/inodb/vcfnp/internal/schema"
	"github.com/inodb/vcfnp/internal/vcf"
)

type config struct {
	regions      []Region
	kind         schema.TableKind
	chunkSize    int
	valuesPerRow int
	decompose    bool
	policy       flatten.Policy
	fields       []string
	samples      []string
	normalizer   vcf.Normalizer
	logger       *zap.Logger
	closers      []io.Closer
}

// Option configures an Extractor.
type Option func(*config)

// WithRegions restricts extraction to regions. They are processed in
// ascending order whatever order they are given in.
func WithRegions(regions ...Region) Option {
	return func(c *config) { c.regions = append(c.regions, regions...) }
}

// WithKind selects the table to produce. The default is the variants table.
func WithKind(k schema.TableKind) Option {
	return func(c *config) { c.kind = k }
}

// WithChunkSize sets the maximum number of rows per chunk.
func WithChunkSize(n int) Option {
	return func(c *config) { c.chunkSize = n }
}

// WithValuesPerRow sets the values reserved per row for multi-valued
// columns. A chunk is flushed early when a column runs out of room.
func WithValuesPerRow(n int) Option {
	return func(c *config) { c.valuesPerRow = n }
}

// WithDecompose emits one row per alternate allele.
func WithDecompose(on bool) Option {
	return func(c *config) { c.decompose = on }
}

// WithPolicy sets what happens to records that fail coercion.
func WithPolicy(p flatten.Policy) Option {
	return func(c *config) { c.policy = p }
}

// WithFields selects INFO (variants, info) or FORMAT (calls) fields.
func WithFields(fields ...string) Option {
	return func(c *config) { c.fields = fields }
}

// WithSamples selects and orders samples of the calls table.
func WithSamples(samples ...string) Option {
	return func(c *config) { c.samples = samples }
}

// WithNormalizer sets the allele normalizer used when decomposing.
func WithNormalizer(n vcf.Normalizer) Option {
	return func(c *config) { c.normalizer = n }
}

// WithLogger sets the logger for skipped records and regions.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithCloser hands ownership of a resource to the extractor; it is closed by
// Extractor.Close.
func WithCloser(cl io.Closer) Option {
	return func(c *config) { c.closers = append(c.closers, cl) }
}
