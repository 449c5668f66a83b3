package apm

import (
	"bytes"
	"context"
	"testing"

	"github.com/fd1az/dex-scanner/internal/logger"
)

func TestNewTraceProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "none", cfg: Config{Provider: EmptyProvider}},
		{name: "empty string", cfg: Config{}},
		{name: "console", cfg: Config{Provider: ConsoleProvider, ServiceName: "test", ConsoleWriter: &bytes.Buffer{}}},
		{name: "zipkin without endpoint", cfg: Config{Provider: ZipkinProvider}, wantErr: true},
		{name: "unknown", cfg: Config{Provider: "jaeger"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, err := NewTraceProvider(context.Background(), tt.cfg, logger.Discard())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewTraceProvider() error = %v", err)
			}
			if err := tp.Stop(); err != nil {
				t.Errorf("Stop() error = %v", err)
			}
		})
	}
}

func TestParseHeaders(t *testing.T) {
	h := parseHeaders("api-key=abc, x-team=scanner,broken")
	if len(h) != 2 || h["api-key"] != "abc" || h["x-team"] != "scanner" {
		t.Errorf("parseHeaders() = %v", h)
	}
	if parseHeaders("") != nil {
		t.Error("parseHeaders(\"\") should be nil")
	}
}
