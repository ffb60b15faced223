package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vcfnp/internal/duckdb"
	"github.com/inodb/vcfnp/internal/extract"
	"github.com/inodb/vcfnp/internal/flatten"
	"github.com/inodb/vcfnp/internal/index"
	"github.com/inodb/vcfnp/internal/output"
	"github.com/inodb/vcfnp/internal/schema"
	"github.com/inodb/vcfnp/internal/table"
	"github.com/inodb/vcfnp/internal/vcf"
)

type extractFlags struct {
	kind      string
	regions   []string
	fields    []string
	samples   []string
	format    string
	output    string
	indexPath string
	table     string
	normalize bool
}

func newExtractCmd(a *app) *cobra.Command {
	var f extractFlags

	cmd := &cobra.Command{
		Use:   "extract [flags] <file.vcf>",
		Short: "Extract a table from a VCF file in chunks",
		Long: `Flatten VCF records into a variants, calls or info table and write it as
TSV or into a DuckDB database. Without --region the whole file is read;
with --region the file must have been indexed with "vcfnp index".

Records that fail type coercion are skipped and counted unless --strict is
given.`,
		Example: `  vcfnp extract sample.vcf
  vcfnp extract --kind calls --fields GQ,DP --region chr1:1-100000 sample.vcf
  vcfnp extract --decompose --format duckdb -o sample.duckdb sample.vcf
  vcfnp extract --region chr1 --region chr2 --workers 4 sample.vcf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), a.logger, args[0], f, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.kind, "kind", "variants", "table kind: variants, calls or info")
	flags.StringArrayVar(&f.regions, "region", nil, "region chrom[:start[-end]] (repeatable)")
	flags.StringSliceVar(&f.fields, "fields", nil, "INFO or FORMAT fields to include (default all)")
	flags.StringSliceVar(&f.samples, "samples", nil, "samples to include, in order (calls table)")
	flags.StringVar(&f.format, "format", "tsv", "output format: tsv or duckdb")
	flags.StringVarP(&f.output, "output", "o", "", "output file (default stdout; required for duckdb)")
	flags.StringVar(&f.indexPath, "index", "", "index file (default <file.vcf>"+index.Extension+")")
	flags.StringVar(&f.table, "table", "", "DuckDB table name (default the table kind)")
	flags.BoolVar(&f.normalize, "normalize", false, "trim shared allele bases when decomposing")

	flags.Int("chunk-size", extract.DefaultChunkSize, "rows per chunk")
	flags.Int("ploidy", schema.DefaultPloidy, "allele indices stored per genotype")
	flags.Int("workers", 1, "parallel workers for region extraction")
	flags.Bool("decompose", false, "one row per alternate allele")
	flags.Bool("strict", false, "abort on the first record that fails coercion")
	for key, name := range map[string]string{
		"chunk_size": "chunk-size",
		"ploidy":     "ploidy",
		"workers":    "workers",
		"decompose":  "decompose",
		"strict":     "strict",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}

	return cmd
}

func runExtract(ctx context.Context, logger *zap.Logger, path string, f extractFlags, stdout io.Writer) error {
	kind, err := schema.ParseTableKind(f.kind)
	if err != nil {
		return err
	}
	regions, err := extract.ParseRegions(f.regions)
	if err != nil {
		return err
	}
	idxPath := f.indexPath
	if idxPath == "" {
		idxPath = index.DefaultPath(path)
	}

	src, err := extract.OpenFile(path, idxPath)
	if err != nil {
		return err
	}
	defer src.Close()

	reg, err := newRegistry(src.Header())
	if err != nil {
		return err
	}

	policy := flatten.Skip
	if viper.GetBool("strict") {
		policy = flatten.Abort
	}
	opts := []extract.Option{
		extract.WithKind(kind),
		extract.WithChunkSize(viper.GetInt("chunk_size")),
		extract.WithDecompose(viper.GetBool("decompose")),
		extract.WithPolicy(policy),
		extract.WithFields(selectFields(kind, f.fields)...),
		extract.WithSamples(f.samples...),
		extract.WithLogger(logger),
	}
	if f.normalize {
		opts = append(opts, extract.WithNormalizer(vcf.TrimNormalizer{}))
	}

	ex, err := extract.New(src.Source, reg, append(slices.Clone(opts), extract.WithRegions(regions...))...)
	if err != nil {
		return err
	}

	sink, err := newSink(f, kind, stdout)
	if err != nil {
		return err
	}
	if err := sink.Begin(ex.Columns()); err != nil {
		sink.Close()
		return err
	}

	var stats extract.Stats
	workers := viper.GetInt("workers")
	if workers > 1 && len(regions) > 1 {
		factory := func(rs []extract.Region) (*extract.Extractor, error) {
			s, err := extract.OpenFile(path, idxPath)
			if err != nil {
				return nil, err
			}
			e, err := extract.New(s.Source, reg, append(slices.Clone(opts), extract.WithRegions(rs...), extract.WithCloser(s))...)
			if err != nil {
				s.Close()
				return nil, err
			}
			return e, nil
		}
		stats, err = extract.ExtractParallel(ctx, regions, workers, factory, sink.Write)
	} else {
		for ch, cerr := range ex.All() {
			if err = cerr; err != nil {
				break
			}
			if err = sink.Write(ch); err != nil {
				break
			}
		}
		stats = ex.Stats()
	}
	if err != nil {
		sink.Close()
		return err
	}

	logger.Info("extraction complete",
		zap.String("kind", kind.String()),
		zap.Int("records", stats.Records),
		zap.Int("rows", stats.Rows),
		zap.Int("skipped_records", stats.SkippedRecords),
		zap.Int("skipped_regions", stats.SkippedRegions))
	if stats.SkippedRecords > 0 || stats.SkippedRegions > 0 {
		fmt.Fprintf(os.Stderr, "Skipped %d records and %d regions\n", stats.SkippedRecords, stats.SkippedRegions)
	}

	if err := sink.Finish(path, f.regions, stats); err != nil {
		sink.Close()
		return err
	}
	return sink.Close()
}

// chunkSink receives the chunks of one extraction.
type chunkSink interface {
	Begin(columns []schema.Descriptor) error
	Write(ch *table.Chunk) error
	Finish(source string, regions []string, stats extract.Stats) error
	Close() error
}

func newSink(f extractFlags, kind schema.TableKind, stdout io.Writer) (chunkSink, error) {
	switch f.format {
	case "tsv":
		s := &tsvSink{w: stdout}
		if f.output != "" && f.output != "-" {
			file, err := os.Create(f.output)
			if err != nil {
				return nil, fmt.Errorf("create output file: %w", err)
			}
			s.w, s.file = file, file
		}
		return s, nil
	case "duckdb":
		if f.output == "" {
			return nil, fmt.Errorf("--format duckdb requires -o <file.duckdb>")
		}
		store, err := duckdb.Open(f.output)
		if err != nil {
			return nil, err
		}
		name := f.table
		if name == "" {
			name = kind.String()
		}
		return &duckdbSink{store: store, table: name, kind: kind}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", f.format)
}

type tsvSink struct {
	w    io.Writer
	file *os.File
	tw   *output.TabWriter
}

func (s *tsvSink) Begin(columns []schema.Descriptor) error {
	s.tw = output.NewTabWriter(s.w, columns)
	return s.tw.WriteHeader()
}

func (s *tsvSink) Write(ch *table.Chunk) error {
	return s.tw.WriteChunk(ch)
}

func (s *tsvSink) Finish(string, []string, extract.Stats) error {
	return s.tw.Flush()
}

func (s *tsvSink) Close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

type duckdbSink struct {
	store *duckdb.Store
	table string
	kind  schema.TableKind
}

func (s *duckdbSink) Begin(columns []schema.Descriptor) error {
	return s.store.CreateTable(s.table, columns)
}

func (s *duckdbSink) Write(ch *table.Chunk) error {
	return s.store.WriteChunk(s.table, ch)
}

func (s *duckdbSink) Finish(source string, regions []string, stats extract.Stats) error {
	fp, err := index.StatFile(source)
	if err != nil {
		return err
	}
	return s.store.RecordExtraction(duckdb.Extraction{
		Table:          s.table,
		Kind:           s.kind.String(),
		Source:         fp,
		Regions:        regions,
		Records:        int64(stats.Records),
		Rows:           int64(stats.Rows),
		SkippedRecords: int64(stats.SkippedRecords),
		SkippedRegions: int64(stats.SkippedRegions),
	})
}

func (s *duckdbSink) Close() error {
	return s.store.Close()
}
