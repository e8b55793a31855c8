package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"admin-geocoder/internal/bano"
	"admin-geocoder/internal/metrics"
	"admin-geocoder/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// AddrIndexer is the external document index receiving addresses.
type AddrIndexer interface {
	CreateAddrIndex(ctx context.Context, dataset string) (string, error)
	BulkIndex(ctx context.Context, index string, addrs []models.Addr) (int64, error)
	PublishAddrIndex(ctx context.Context, dataset, index string) error
	DropAddrIndex(ctx context.Context, index string) error
}

// RecordAssembler turns an address record into a document.
type RecordAssembler interface {
	Assemble(rec bano.Record) (models.Addr, error)
}

// AddrConfig sizes the address pipeline.
type AddrConfig struct {
	Dataset   string
	Workers   int
	BatchSize int
}

// Report summarises an address import.
type Report struct {
	Files    int
	Imported int64
	Failed   int
}

// AddrImporter resolves and indexes address files. Records are processed
// in batches; within a batch they are assembled in parallel.
type AddrImporter struct {
	indexer   AddrIndexer
	assembler RecordAssembler
	cfg       AddrConfig
	log       zerolog.Logger
}

// NewAddrImporter creates an address importer.
func NewAddrImporter(indexer AddrIndexer, assembler RecordAssembler, cfg AddrConfig, logger zerolog.Logger) *AddrImporter {
	cfg.Workers = max(cfg.Workers, 1)
	cfg.BatchSize = max(cfg.BatchSize, 1)
	return &AddrImporter{indexer: indexer, assembler: assembler, cfg: cfg, log: logger}
}

// Import indexes every file into a fresh index and publishes it. Bad records
// are counted in Report.Failed; only index or I/O failures abort the run,
// in which case the unpublished index is dropped.
func (i *AddrImporter) Import(ctx context.Context, files []string) (Report, error) {
	var report Report

	index, err := i.indexer.CreateAddrIndex(ctx, i.cfg.Dataset)
	if err != nil {
		return report, fmt.Errorf("importer: failed to create address index: %w", err)
	}

	for _, f := range files {
		i.log.Info().Str("file", f).Msg("importing")
		imported, failed, err := i.importFile(ctx, index, f)
		report.Imported += imported
		report.Failed += failed
		if err != nil {
			if dropErr := i.indexer.DropAddrIndex(context.WithoutCancel(ctx), index); dropErr != nil {
				i.log.Error().Err(dropErr).Str("index", index).Msg("failed to drop unpublished index")
			}
			return report, fmt.Errorf("importer: %s: %w", f, err)
		}
		report.Files++
		i.log.Info().Str("file", f).Int64("imported", imported).Int("failed", failed).Msg("file imported")
	}

	if err := i.indexer.PublishAddrIndex(ctx, i.cfg.Dataset, index); err != nil {
		return report, fmt.Errorf("importer: failed to publish address index: %w", err)
	}
	return report, nil
}

func (i *AddrImporter) importFile(ctx context.Context, index, path string) (int64, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var (
		imported int64
		failed   int
		batch    []bano.Record
	)
	flush := func() error {
		n, bad, err := i.indexBatch(ctx, index, batch)
		imported += n
		failed += bad
		batch = batch[:0]
		return err
	}

	reader := bano.NewReader(file, path)
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var recErr *bano.RecordError
		if errors.As(err, &recErr) {
			i.log.Warn().Str("file", recErr.File).Int("line", recErr.Line).Err(recErr.Err).Msg("skipping address record")
			metrics.AddrsFailedTotal.Inc()
			failed++
			continue
		}
		if err != nil {
			return imported, failed, fmt.Errorf("failed to read records: %w", err)
		}

		batch = append(batch, rec)
		if len(batch) >= i.cfg.BatchSize {
			if err := flush(); err != nil {
				return imported, failed, err
			}
		}
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return imported, failed, err
		}
	}
	return imported, failed, nil
}

// indexBatch assembles recs concurrently and bulk indexes the successes.
func (i *AddrImporter) indexBatch(ctx context.Context, index string, recs []bano.Record) (int64, int, error) {
	addrs := make([]models.Addr, len(recs))
	ok := make([]bool, len(recs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.cfg.Workers)
	chunk := (len(recs) + i.cfg.Workers - 1) / i.cfg.Workers
	for start := 0; start < len(recs); start += chunk {
		end := min(start+chunk, len(recs))
		g.Go(func() error {
			for j := start; j < end; j++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				addr, err := i.assembler.Assemble(recs[j])
				if err != nil {
					i.log.Warn().Str("id", recs[j].ID).Err(err).Msg("skipping address record")
					continue
				}
				addrs[j], ok[j] = addr, true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	docs := addrs[:0]
	failed := 0
	for j := range addrs {
		if ok[j] {
			docs = append(docs, addrs[j])
		} else {
			failed++
		}
	}
	metrics.AddrsFailedTotal.Add(float64(failed))
	if len(docs) == 0 {
		return 0, failed, nil
	}

	n, err := i.indexer.BulkIndex(ctx, index, docs)
	if err != nil {
		return 0, failed, fmt.Errorf("failed to bulk index: %w", err)
	}
	metrics.AddrsIndexedTotal.Add(float64(n))
	return n, failed, nil
}
