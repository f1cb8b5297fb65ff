// Package batch extracts the metadata of many documents concurrently.
// A failing document never stops the others.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ISA-tools/mzml2isa/internal/extract"
	"github.com/ISA-tools/mzml2isa/internal/meta"
	"github.com/ISA-tools/mzml2isa/internal/metrics"
	"github.com/ISA-tools/mzml2isa/internal/source"
)

// ErrUnknownDatatype means no extractor handles the extension of a
// document
var ErrUnknownDatatype = errors.New("batch: unknown datatype")

// Extractor extracts one document. *extract.Extractor implements it.
type Extractor interface {
	Extract(ctx context.Context, in extract.Input) (*extract.Result, error)
}

// Extractors selects the extractor of each datatype.
type Extractors map[extract.Datatype]Extractor

// Options control a batch run.
type Options struct {
	// Workers bounds the documents processed at once; 0 means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
	Metrics *metrics.Batch
}

// Result is the outcome of one document.
type Result struct {
	Name     string
	Datatype extract.Datatype
	Metadata *meta.Dictionary
	Warnings []extract.Warning
	Err      error
}

// Summary counts the outcomes of a run. Documents with warnings are
// counted as Warned, not Succeeded.
type Summary struct {
	Succeeded int
	Warned    int
	Failed    int
}

func (r Result) outcome() string {
	switch {
	case r.Err != nil:
		return metrics.Failed
	case len(r.Warnings) > 0:
		return metrics.Warned
	}
	return metrics.Succeeded
}

// Run extracts every named document of src. Results are in the order of
// names. When ctx is canceled no further document is started, the ones
// not started fail with the context error, and that error is returned.
func Run(ctx context.Context, src source.Source, names []string, extractors Extractors, opts Options) ([]Result, Summary, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(names))
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, name := range names {
		results[i].Name = name
		if ctx.Err() != nil {
			results[i].Err = ctx.Err()
			continue
		}
		i, name := i, name
		g.Go(func() error {
			start := time.Now()
			r := runOne(ctx, src, name, extractors, log)
			opts.Metrics.Observe(string(r.Datatype), r.outcome(), len(r.Warnings), time.Since(start))
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	var sum Summary
	for _, r := range results {
		switch r.outcome() {
		case metrics.Failed:
			sum.Failed++
		case metrics.Warned:
			sum.Warned++
		default:
			sum.Succeeded++
		}
	}
	for _, r := range results {
		if r.Err != nil && !errors.Is(r.Err, context.Canceled) {
			log.Error("extraction failed", "file", r.Name, "err", r.Err)
		}
	}
	log.Info("batch done", "documents", len(names), "succeeded", sum.Succeeded,
		"warned", sum.Warned, "failed", sum.Failed)
	return results, sum, ctx.Err()
}

func runOne(ctx context.Context, src source.Source, name string, extractors Extractors, log *slog.Logger) Result {
	res := Result{Name: name}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	dt, ok := extract.DatatypeOf(name)
	x := extractors[dt]
	if !ok || x == nil {
		res.Err = fmt.Errorf("%s: %w", name, ErrUnknownDatatype)
		return res
	}
	res.Datatype = dt

	in := extract.Input{
		Name: name,
		Open: func() (io.ReadCloser, error) { return src.Open(ctx, name) },
	}
	if dt == extract.ImzML {
		siblings, err := source.Siblings(ctx, src, name)
		if err != nil {
			log.Warn("cannot list sibling files", "file", name, "err", err)
		}
		in.Siblings = siblings
	}

	out, err := x.Extract(ctx, in)
	if err != nil {
		res.Err = err
		return res
	}
	res.Metadata = out.Metadata
	res.Warnings = out.Warnings
	return res
}
