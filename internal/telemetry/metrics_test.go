package telemetry

import "testing"

func TestNewMetricsRegistry_RegistersExtraCollectors(t *testing.T) {
	reg := NewMetricsRegistry(All()...)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) == 0 {
		t.Error("Gather() = no metric families, want at least the Go/process collectors")
	}
}

func TestNewMetricsRegistry_NoExtras(t *testing.T) {
	reg := NewMetricsRegistry()
	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
}

func TestAll_ReturnsExpectedCount(t *testing.T) {
	if got := len(All()); got != 5 {
		t.Errorf("len(All()) = %d, want 5", got)
	}
}
