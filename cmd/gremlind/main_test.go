package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/moorebrett0/gremlin/internal/config"
	"github.com/moorebrett0/gremlin/internal/metrics"
	"github.com/moorebrett0/gremlin/internal/persist"
)

func TestNewHandlerHonoursLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, config.LogConfig{Level: "warn", Format: "json"}))

	log.Info("hidden")
	log.Warn("shown", "k", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info record filtered, got %q", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("expected JSON warn record, got %q", out)
	}
}

func TestOpenGatewaySelectsBackend(t *testing.T) {
	dir := t.TempDir()

	gw, closeFn, err := openGateway(config.StoreConfig{Backend: "file", Path: filepath.Join(dir, "pets.json")})
	if err != nil {
		t.Fatalf("open file gateway: %v", err)
	}
	closeFn()
	if _, ok := gw.(*persist.FileGateway); !ok {
		t.Fatalf("expected *persist.FileGateway, got %T", gw)
	}

	gw, closeFn, err = openGateway(config.StoreConfig{Backend: "bolt", Path: filepath.Join(dir, "pets.db")})
	if err != nil {
		t.Fatalf("open bolt gateway: %v", err)
	}
	defer closeFn()
	if _, ok := gw.(*persist.BoltGateway); !ok {
		t.Fatalf("expected *persist.BoltGateway, got %T", gw)
	}
	entries, err := gw.Load(context.Background())
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty bolt store, got %d entries (err %v)", len(entries), err)
	}
}

func TestMetricsMux(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.Action("feed", "ok")

	srv := httptest.NewServer(metricsMux(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(body.String(), `gremlin_actions_total{action="feed",outcome="ok"} 1`) {
		t.Fatalf("expected feed counter in output, got:\n%s", body.String())
	}

	health, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", health.StatusCode)
	}
}
