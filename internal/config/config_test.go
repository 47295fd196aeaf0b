package config

import "testing"

func TestValidate_InvalidLoggingLevel(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		Logging: LoggingConfig{Level: "verbose"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid logging level")
	}

	expected := `logging.level must be debug, info, warn or error, got "verbose"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidLoggingLevels(t *testing.T) {
	validLevels := []string{"", "debug", "info", "warn", "error"}

	for _, level := range validLevels {
		t.Run("level="+level, func(t *testing.T) {
			cfg := Config{
				HTTP: HTTPConfig{Port: 8080},
				Database: DatabaseConfig{
					Addrs: []string{"localhost:6379"},
				},
				Logging: LoggingConfig{Level: level},
			}

			err := cfg.Validate()
			if err != nil {
				t.Fatalf("unexpected error for valid level %q: %v", level, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 0},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_RunTTLShorterThanLaneTTL(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		Retention: RetentionConfig{LaneTTLHours: 72, RunTTLHours: 24},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for run TTL shorter than lane TTL")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Retention.LaneTTLHours != 72 {
		t.Errorf("expected LaneTTLHours=72, got %d", cfg.Retention.LaneTTLHours)
	}
	if cfg.Retention.RunTTLHours != 168 {
		t.Errorf("expected RunTTLHours=168, got %d", cfg.Retention.RunTTLHours)
	}
	if cfg.Retention.DocTTLHours != 72 {
		t.Errorf("expected DocTTLHours=72, got %d", cfg.Retention.DocTTLHours)
	}
	if cfg.Fusion.MaxLaneDocs != 5000 {
		t.Errorf("expected MaxLaneDocs=5000, got %d", cfg.Fusion.MaxLaneDocs)
	}
	if cfg.Fusion.MaxSources != 16 {
		t.Errorf("expected MaxSources=16, got %d", cfg.Fusion.MaxSources)
	}
	if cfg.Fusion.MaxCutoff != 1000 {
		t.Errorf("expected MaxCutoff=1000, got %d", cfg.Fusion.MaxCutoff)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:  DatabaseConfig{ReadinessTimeout: 15},
		Retention: RetentionConfig{LaneTTLHours: 24, RunTTLHours: 48, DocTTLHours: 24},
		Fusion:    FusionConfig{MaxLaneDocs: 100, MaxSources: 4, MaxCutoff: 300},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Retention.LaneTTLHours != 24 {
		t.Errorf("expected LaneTTLHours=24, got %d", cfg.Retention.LaneTTLHours)
	}
	if cfg.Fusion.MaxSources != 4 {
		t.Errorf("expected MaxSources=4, got %d", cfg.Fusion.MaxSources)
	}
}
