package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// findFamily returns the gathered metric family with the given name, or nil.
func findFamily(t *testing.T, c *Collector, name string) *dto.MetricFamily {
	t.Helper()

	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() returned error: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

// kindLabel extracts the "kind" label value of a histogram series.
func kindLabel(m *dto.Metric) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == "kind" {
			return lp.GetValue()
		}
	}
	return ""
}

func TestNewCollector_ZeroValueNames(t *testing.T) {
	_, err := NewCollector(MetricNames{})
	if !errors.Is(err, ErrEmptyMetricName) {
		t.Errorf("NewCollector(zero value) error = %v, want ErrEmptyMetricName", err)
	}
}

func TestNewCollector_RegistersCallsHistogram(t *testing.T) {
	c, err := NewCollector(DefaultMetricNames())
	if err != nil {
		t.Fatalf("NewCollector() returned error: %v", err)
	}

	if c.MetricNames() != DefaultMetricNames() {
		t.Errorf("MetricNames() = %+v, want the defaults it was built with", c.MetricNames())
	}

	// The family only appears once a series exists.
	c.ObserveCall("backendA", KindSuccessful, 10*time.Millisecond)

	mf := findFamily(t, c, DefaultCallsMetricName)
	if mf == nil {
		t.Fatalf("calls histogram not found in scrape")
	}
	if mf.GetType() != dto.MetricType_HISTOGRAM {
		t.Errorf("calls family type = %v, want HISTOGRAM", mf.GetType())
	}
	if mf.GetHelp() != "Total number of calls by kind" {
		t.Errorf("calls family help = %q", mf.GetHelp())
	}
}

func TestObserveCall_PartitionsByKind(t *testing.T) {
	c, err := NewCollector(DefaultMetricNames())
	if err != nil {
		t.Fatalf("NewCollector() returned error: %v", err)
	}

	split := map[Kind]int{
		KindSuccessful:   10,
		KindFailed:       5,
		KindIgnored:      2,
		KindNotPermitted: 3,
	}
	for kind, n := range split {
		for i := 0; i < n; i++ {
			c.ObserveCall("backendA", kind, time.Millisecond)
		}
	}

	mf := findFamily(t, c, DefaultCallsMetricName)
	if mf == nil {
		t.Fatalf("calls histogram not found in scrape")
	}

	var total uint64
	for _, m := range mf.GetMetric() {
		count := m.GetHistogram().GetSampleCount()
		total += count

		want := split[Kind(kindLabel(m))]
		if count != uint64(want) {
			t.Errorf("kind %q sample count = %d, want %d", kindLabel(m), count, want)
		}
	}

	if total != 20 {
		t.Errorf("total observations = %d, want 20", total)
	}
	if len(mf.GetMetric()) != 4 {
		t.Errorf("series count = %d, want 4", len(mf.GetMetric()))
	}
}

func TestObserveCall_ConcurrentWriters(t *testing.T) {
	c, err := NewCollector(DefaultMetricNames())
	if err != nil {
		t.Fatalf("NewCollector() returned error: %v", err)
	}

	const perKind = 50
	kinds := []Kind{KindSuccessful, KindFailed, KindIgnored, KindNotPermitted}

	var wg sync.WaitGroup
	for _, kind := range kinds {
		for i := 0; i < perKind; i++ {
			wg.Add(1)
			go func(k Kind) {
				defer wg.Done()
				c.ObserveCall("backendA", k, time.Millisecond)
			}(kind)
		}
	}
	wg.Wait()

	mf := findFamily(t, c, DefaultCallsMetricName)
	if mf == nil {
		t.Fatalf("calls histogram not found in scrape")
	}

	var total uint64
	for _, m := range mf.GetMetric() {
		if count := m.GetHistogram().GetSampleCount(); count != perKind {
			t.Errorf("kind %q sample count = %d, want %d", kindLabel(m), count, perKind)
		} else {
			total += count
		}
	}
	if total != uint64(perKind*len(kinds)) {
		t.Errorf("total observations = %d, want %d", total, perKind*len(kinds))
	}
}

func TestCollectors_IsolatedRegistries(t *testing.T) {
	first, err := NewCollector(DefaultMetricNames())
	if err != nil {
		t.Fatalf("NewCollector() returned error: %v", err)
	}
	second, err := NewCollector(DefaultMetricNames())
	if err != nil {
		t.Fatalf("NewCollector() returned error: %v", err)
	}

	if first.Registry() == second.Registry() {
		t.Fatal("independent collectors share a registry")
	}

	first.ObserveCall("backendA", KindSuccessful, time.Millisecond)

	if mf := findFamily(t, second, DefaultCallsMetricName); mf != nil && len(mf.GetMetric()) > 0 {
		t.Errorf("observation on first collector visible in second collector's scrape")
	}
}

func TestCustomCallsName_AppearsUnderCustomNameOnly(t *testing.T) {
	names, err := CustomMetricNames().CallsMetricName("acme_breaker_calls").Build()
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	c, err := NewCollector(names)
	if err != nil {
		t.Fatalf("NewCollector() returned error: %v", err)
	}
	c.ObserveCall("backendA", KindFailed, time.Millisecond)

	if mf := findFamily(t, c, "acme_breaker_calls"); mf == nil {
		t.Error("custom calls family missing from scrape")
	}
	if mf := findFamily(t, c, DefaultCallsMetricName); mf != nil {
		t.Error("default calls family must not appear alongside the custom name")
	}
}
