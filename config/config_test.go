package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	if c.ReconnectInterval != 2*time.Second || c.MaxPacketSize != 64_000_000 || !c.AutoReconnect {
		t.Fatalf("defaults = %+v", c)
	}
	if c.ReceiveBufferSize != 64*1024 || c.Prometheus.Path != "/metrics" || c.Prometheus.Port != 0 {
		t.Fatalf("defaults = %+v", c)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aquinas.yaml")
	content := `
Url: ws://example.org:8080/aquinas
ReconnectInterval: 5s
AutoReconnect: false
Log:
  Level: debug
Prometheus:
  Port: 9101
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Url != "ws://example.org:8080/aquinas" || c.ReconnectInterval != 5*time.Second || c.AutoReconnect {
		t.Fatalf("loaded = %+v", c)
	}
	if c.Log.Level != "debug" || c.Log.Filename != "aquinas.log" || c.Prometheus.Port != 9101 {
		t.Fatalf("nested = %+v %+v", c.Log, c.Prometheus)
	}
	if c.MaxPacketSize != 64_000_000 {
		t.Fatalf("MaxPacketSize = %d", c.MaxPacketSize)
	}
}
