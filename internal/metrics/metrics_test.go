package metrics

import (
	"context"
	"testing"
)

func TestNewMetricProvider_DefaultsToPrometheus(t *testing.T) {
	mp, err := NewMetricProvider(context.Background(), WithServiceName("dex-scanner-test"))
	if err != nil {
		t.Fatalf("NewMetricProvider() error = %v", err)
	}
	defer mp.Shutdown(context.Background())

	counter, err := mp.Meter("test").Int64Counter("test_events_total")
	if err != nil {
		t.Fatalf("Int64Counter() error = %v", err)
	}
	counter.Add(context.Background(), 1)
}

func TestNewMetricProvider_UnknownProvider(t *testing.T) {
	_, err := NewMetricProvider(context.Background(), WithProviderConfig(ProviderCfg{Provider: "statsd"}))
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
