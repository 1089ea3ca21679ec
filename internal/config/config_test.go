package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "8080" || cfg.Server.PageSize != 100 {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.EventStore.Namespace != "Porti.SourceControl" {
		t.Fatalf("namespace = %q", cfg.EventStore.Namespace)
	}
	if cfg.Projection.Workers != 2 || cfg.Projection.RespawnMaxDelay != 30*time.Second {
		t.Fatalf("projection = %+v", cfg.Projection)
	}
	if cfg.Database.MaxConns != 10 {
		t.Fatalf("max conns = %d", cfg.Database.MaxConns)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PROJECTION_WORKERS", "4")
	t.Setenv("PROJECTION_RESPAWN_MAX_DELAY", "5s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Projection.Workers != 4 || cfg.Projection.RespawnMaxDelay != 5*time.Second {
		t.Fatalf("projection = %+v", cfg.Projection)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Redis.URL == "" {
		t.Fatal("redis url not read")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PROJECTION_WORKERS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "porti.yaml")
	if err := os.WriteFile(path, []byte("PORT: \"9090\"\nPAGE_SIZE: 25\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "9090" || cfg.Server.PageSize != 25 {
		t.Fatalf("server = %+v", cfg.Server)
	}
}
