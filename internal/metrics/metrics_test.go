package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := NewBatch()
	m.Observe("mzML", Succeeded, 0, 10*time.Millisecond)
	m.Observe("mzML", Warned, 3, 20*time.Millisecond)
	m.Observe("imzML", Warned, 1, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues("mzML", Succeeded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues("imzML", Warned)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.warnings))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))

	var nilBatch *Batch
	nilBatch.Observe("mzML", Failed, 0, 0)
}

func TestWriteToTextfile(t *testing.T) {
	m := NewBatch()
	m.Observe("mzML", Failed, 0, time.Millisecond)
	file := filepath.Join(t.TempDir(), "mzml2isa.prom")
	require.NoError(t, m.WriteToTextfile(file))
	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), `mzml2isa_documents_total{datatype="mzML",outcome="failed"} 1`), string(b))
}
