package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ISA-tools/mzml2isa/internal/batch"
	"github.com/ISA-tools/mzml2isa/internal/config"
	"github.com/ISA-tools/mzml2isa/internal/extract"
	"github.com/ISA-tools/mzml2isa/internal/isatab"
	"github.com/ISA-tools/mzml2isa/internal/meta"
	"github.com/ISA-tools/mzml2isa/internal/metrics"
	"github.com/ISA-tools/mzml2isa/internal/obo"
	"github.com/ISA-tools/mzml2isa/internal/source"
)

func readOBO(file string) (*obo.Ontology, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: %w", err)
	}
	defer f.Close()
	o, err := obo.ParseOBO(f)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", file, err)
	}
	slog.Debug("vocabulary loaded", "file", file, "ontology", o.Header.Ontology,
		"version", o.Header.DataVersion, "terms", o.Len())
	return o, nil
}

// loadIndex returns the term index for a datatype. Imaging documents use
// the MS vocabulary merged with the imaging one.
func loadIndex(cfg *config.Config, dt extract.Datatype) (*extract.TermIndex, error) {
	ms, err := readOBO(cfg.Vocabulary.MS)
	if err != nil {
		return nil, err
	}
	vocab := ms
	if dt == extract.ImzML && cfg.Vocabulary.IMS != "" {
		ims, err := readOBO(cfg.Vocabulary.IMS)
		if err != nil {
			return nil, err
		}
		vocab = obo.Merge(ms, ims)
	}
	return extract.NewTermIndex(vocab, extract.DefaultCacheSize)
}

// openSource returns the source of a conversion: a prefix of the
// configured S3 bucket, a zip archive, or a local directory.
func openSource(cfg *config.Config, arg string) (source.Source, func() error, error) {
	noop := func() error { return nil }
	switch {
	case cfg.S3.Enabled():
		prefix := cfg.S3.Prefix
		if arg != "" && arg != "." {
			prefix += strings.TrimSuffix(arg, "/") + "/"
		}
		src, err := source.NewS3(source.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Prefix:    prefix,
			UseSSL:    cfg.S3.UseSSL,
		})
		return src, noop, err
	case strings.EqualFold(filepath.Ext(arg), ".zip"):
		src, err := source.Zip(arg)
		if err != nil {
			return nil, noop, err
		}
		return src, src.Close, nil
	}
	src, err := source.Dir(arg)
	return src, noop, err
}

// convertStudy extracts every document of a study and renders the
// metadata, one renderer call per datatype.
func convertStudy(ctx context.Context, cfg *config.Config, arg, glob string, split bool) error {
	slog.Info("converting", "program", progName, "version", progVersion, "source", arg)
	src, closeSrc, err := openSource(cfg, arg)
	if err != nil {
		return err
	}
	defer closeSrc()

	names, err := src.List(ctx, glob)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("%s: no document matches %s", arg, glob)
	}

	extractors := batch.Extractors{}
	for _, name := range names {
		dt, ok := extract.DatatypeOf(name)
		if !ok || extractors[dt] != nil {
			continue
		}
		index, err := loadIndex(cfg, dt)
		if err != nil {
			return err
		}
		extractors[dt] = extract.NewExtractor(index, extract.Options{
			Datatype:     dt,
			ScanMetadata: cfg.ScanMetadata,
		})
	}

	var m *metrics.Batch
	if cfg.MetricsFile != "" {
		m = metrics.NewBatch()
	}
	start := time.Now()
	results, sum, err := batch.Run(ctx, src, names, extractors, batch.Options{
		Workers: cfg.Workers,
		Metrics: m,
	})
	if err != nil {
		return err
	}
	slog.Info("extraction done", "elapsed", time.Since(start).Round(time.Millisecond),
		"succeeded", sum.Succeeded, "warned", sum.Warned, "failed", sum.Failed)

	docs := map[extract.Datatype][]*meta.Dictionary{}
	for _, r := range results {
		if r.Err == nil {
			docs[r.Datatype] = append(docs[r.Datatype], r.Metadata)
		}
	}
	renderer := &isatab.JSONRenderer{Dir: cfg.Output, ISANames: cfg.ISANames}
	for _, dt := range []extract.Datatype{extract.MzML, extract.ImzML} {
		if len(docs[dt]) == 0 {
			continue
		}
		if err := renderer.Render(docs[dt], string(dt), split); err != nil {
			return err
		}
	}

	if m != nil {
		if err := m.WriteToTextfile(cfg.MetricsFile); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", sum.Failed, len(names))
	}
	return nil
}
