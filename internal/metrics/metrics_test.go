package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistry_Counts(t *testing.T) {
	r := NewRegistry()
	r.ContextBuilt(ModeSimple)
	r.ContextBuilt(ModeSimple)
	r.MissingReference("products")
	r.Inconsistent("BizStep")
	r.MissingTimestamp()
	r.Unmapped()

	if got := testutil.ToFloat64(r.Contexts.WithLabelValues(ModeSimple)); got != 2 {
		t.Errorf("contexts = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.MissingReferences.WithLabelValues("products")); got != 1 {
		t.Errorf("missing references = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.Inconsistencies.WithLabelValues("BizStep")); got != 1 {
		t.Errorf("inconsistencies = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.MissingTimestamps); got != 1 {
		t.Errorf("missing timestamps = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.UnmappedRows); got != 1 {
		t.Errorf("unmapped = %v, want 1", got)
	}
}

func TestRegistry_Gatherer(t *testing.T) {
	r := NewRegistry()
	r.MissingReference("products")
	r.MissingReference("locations")
	r.Unmapped()

	n, err := testutil.GatherAndCount(r.Gatherer(), "epcgen_missing_references_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if n != 2 {
		t.Errorf("missing reference series = %d, want 2", n)
	}

	want := `# HELP epcgen_unmapped_rows_total From rows that matched no purchase order interval.
# TYPE epcgen_unmapped_rows_total counter
epcgen_unmapped_rows_total 1
`
	if err := testutil.GatherAndCompare(r.Gatherer(), strings.NewReader(want), "epcgen_unmapped_rows_total"); err != nil {
		t.Error(err)
	}
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *Registry
	r.ContextBuilt(ModeTransformation)
	r.MissingReference("locations")
	r.MissingTimestamp()
	r.Inconsistent("SSCC")
	r.Unmapped()
}

func TestRegistry_WriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.ContextBuilt(ModeTransformation)

	path := filepath.Join(t.TempDir(), "epcgen.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `epcgen_contexts_total{mode="transformation"} 1`) {
		t.Errorf("unexpected textfile contents:\n%s", data)
	}
}
