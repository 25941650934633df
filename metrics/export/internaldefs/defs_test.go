package internaldefs

import (
	"strings"
	"testing"
)

func TestCumulative(t *testing.T) {
	got := Cumulative([]uint64{1, 2, 3})
	want := [BucketCount]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got = Cumulative([]uint64{1, 1, 1, 1, 1, 1, 1, 1, 100})
	if got[BucketCount-1] != 8 {
		t.Fatalf("extra buckets must be ignored, got %v", got)
	}
}

func TestDefinitionNamesUnique(t *testing.T) {
	seen := map[string]bool{AuditDropped.Name: true}
	for _, d := range append(append([]Def(nil), Counters...), Histograms...) {
		if !strings.HasPrefix(d.Name, "pawnauth_") {
			t.Fatalf("unexpected metric name %q", d.Name)
		}
		if seen[d.Name] {
			t.Fatalf("duplicate metric name %q", d.Name)
		}
		seen[d.Name] = true
	}
}
