package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Discovery.Port != 12346 || cfg.Transfer.Port != 12345 {
		t.Errorf("ports: discovery=%d transfer=%d", cfg.Discovery.Port, cfg.Transfer.Port)
	}
	if cfg.Discovery.Interval != 2*time.Second || cfg.Discovery.ReceiveTimeout != time.Second {
		t.Errorf("timing: interval=%v receive=%v", cfg.Discovery.Interval, cfg.Discovery.ReceiveTimeout)
	}
	if cfg.Transfer.BufferSize != 4096 || cfg.Transfer.DestDir != "received_files" {
		t.Errorf("transfer: %+v", cfg.Transfer)
	}
	if cfg.Discovery.PeerTTL != 0 {
		t.Errorf("peer ttl should default to 0, got %v", cfg.Discovery.PeerTTL)
	}
	if cfg.Name == "" {
		t.Error("name should default to the hostname")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lanshare.yaml")
	content := `
name: office-pc
discovery:
  port: 40000
  interval: 5s
  receive_timeout: 500ms
  peer_ttl: 30s
transfer:
  port: 40001
  buffer_size: 65536
  dest_dir: inbox
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "office-pc" {
		t.Errorf("name %q", cfg.Name)
	}
	if cfg.Discovery.Port != 40000 || cfg.Discovery.Interval != 5*time.Second || cfg.Discovery.ReceiveTimeout != 500*time.Millisecond {
		t.Errorf("discovery %+v", cfg.Discovery)
	}
	if cfg.Discovery.PeerTTL != 30*time.Second {
		t.Errorf("peer ttl %v", cfg.Discovery.PeerTTL)
	}
	if cfg.Transfer.Port != 40001 || cfg.Transfer.BufferSize != 65536 || cfg.Transfer.DestDir != "inbox" {
		t.Errorf("transfer %+v", cfg.Transfer)
	}
	// Untouched keys keep their defaults.
	if cfg.Transfer.DialTimeout != 10*time.Second {
		t.Errorf("dial timeout %v", cfg.Transfer.DialTimeout)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LANSHARE_TRANSFER_PORT", "23000")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transfer.Port != 23000 {
		t.Errorf("env override ignored: port=%d", cfg.Transfer.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	bad := cfg
	bad.Transfer.Port = 70000
	bad.Transfer.BufferSize = 0
	bad.Discovery.ReceiveTimeout = bad.Discovery.Interval
	bad.Name = "a:b"

	err = bad.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"transfer.port", "buffer_size", "receive_timeout", "name"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
