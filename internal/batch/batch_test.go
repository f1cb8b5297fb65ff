package batch

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ISA-tools/mzml2isa/internal/extract"
	"github.com/ISA-tools/mzml2isa/internal/meta"
	"github.com/ISA-tools/mzml2isa/internal/metrics"
	"github.com/ISA-tools/mzml2isa/internal/source"
)

// fakeExtractor reads the whole document and reacts to its content.
type fakeExtractor struct {
	calls    atomic.Int32
	mu       sync.Mutex
	siblings map[string][]string
}

func (f *fakeExtractor) Extract(ctx context.Context, in extract.Input) (*extract.Result, error) {
	f.calls.Add(1)
	r, err := in.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	if f.siblings != nil {
		f.siblings[in.Name] = in.Siblings
	}
	f.mu.Unlock()
	content := string(b)
	if strings.Contains(content, "broken") {
		return nil, errors.New("broken document")
	}
	d := meta.NewDictionary()
	d.Set("MS Assay Name", meta.Scalar{Value: meta.String(in.Name)})
	res := &extract.Result{Metadata: d}
	if strings.Contains(content, "warn") {
		res.Warnings = append(res.Warnings, extract.Warning{Field: "Scan m/z range", Message: "could not find any m/z range"})
	}
	return res, nil
}

func testSource() source.Source {
	return source.NewFS(fstest.MapFS{
		"a.mzML":       {Data: []byte("ok")},
		"b.mzML":       {Data: []byte("warn")},
		"c.mzML":       {Data: []byte("broken")},
		"d.imzML":      {Data: []byte("ok")},
		"d.ibd":        {Data: []byte{0}},
		"d_HE.ndpi":    {Data: []byte{0}},
		"notes.txt":    {Data: []byte("ok")},
		"sub/e.mzML":   {Data: []byte("ok")},
		"sub/e_x.ndpi": {Data: []byte{0}},
	})
}

func TestRun(t *testing.T) {
	fake := &fakeExtractor{siblings: map[string][]string{}}
	m := metrics.NewBatch()
	names := []string{"a.mzML", "b.mzML", "c.mzML", "d.imzML", "notes.txt", "missing.mzML"}
	results, sum, err := Run(context.Background(), testSource(), names,
		Extractors{extract.MzML: fake, extract.ImzML: fake}, Options{Workers: 2, Metrics: m})
	require.NoError(t, err)
	require.Len(t, results, len(names))

	for i, r := range results {
		assert.Equal(t, names[i], r.Name, "results are in input order")
	}
	assert.NoError(t, results[0].Err)
	assert.Equal(t, extract.MzML, results[0].Datatype)
	assert.Len(t, results[1].Warnings, 1)
	assert.Error(t, results[2].Err)
	assert.Equal(t, extract.ImzML, results[3].Datatype)
	assert.ErrorIs(t, results[4].Err, ErrUnknownDatatype)
	assert.Error(t, results[5].Err)

	assert.Equal(t, Summary{Succeeded: 2, Warned: 1, Failed: 3}, sum)
	assert.Equal(t, []string{"a.mzML", "b.mzML", "c.mzML", "d.ibd", "d_HE.ndpi", "notes.txt"},
		fake.siblings["d.imzML"])
	assert.Nil(t, fake.siblings["a.mzML"], "only imaging documents look for siblings")
	assert.Equal(t, int32(5), fake.calls.Load())
	series, err := testutil.GatherAndCount(m.Registry(), "mzml2isa_documents_total")
	require.NoError(t, err)
	assert.Equal(t, 5, series)
}

func TestRunCanceled(t *testing.T) {
	fake := &fakeExtractor{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, sum, err := Run(ctx, testSource(), []string{"a.mzML", "b.mzML"},
		Extractors{extract.MzML: fake}, Options{Workers: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Summary{Failed: 2}, sum)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Equal(t, int32(0), fake.calls.Load())
}
