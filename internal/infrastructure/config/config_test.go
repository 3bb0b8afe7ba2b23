package config

import (
	"os"
	"path/filepath"
	"testing"
)

// writeConfig writes a temporary config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
service:
  id: "test-service"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.ID != "test-service" {
		t.Errorf("Service.ID = %q, want %q", cfg.Service.ID, "test-service")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}

	// Defaults should survive a partial file
	if cfg.WebSocket.Path != "/ws" {
		t.Errorf("WebSocket.Path = %q, want default %q", cfg.WebSocket.Path, "/ws")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	content := `
service:
  id: "test-service"
database:
  path: "/tmp/test.db"
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	t.Setenv("TELEMETRY_MQTT_HOST", "broker.example.com")
	t.Setenv("TELEMETRY_API_PORT", "9090")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want env override", cfg.MQTT.Broker.Host)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
}

func TestConfig_Validate(t *testing.T) {
	validJWTSecret := "test-secret-key-at-least-32-chars!"

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults with secret",
			modify:  func(c *Config) { c.Security.JWT.Secret = validJWTSecret },
			wantErr: false,
		},
		{
			name: "empty service id",
			modify: func(c *Config) {
				c.Security.JWT.Secret = validJWTSecret
				c.Service.ID = ""
			},
			wantErr: true,
		},
		{
			name: "empty database path",
			modify: func(c *Config) {
				c.Security.JWT.Secret = validJWTSecret
				c.Database.Path = ""
			},
			wantErr: true,
		},
		{
			name: "invalid qos",
			modify: func(c *Config) {
				c.Security.JWT.Secret = validJWTSecret
				c.MQTT.QoS = 3
			},
			wantErr: true,
		},
		{
			name: "invalid api port",
			modify: func(c *Config) {
				c.Security.JWT.Secret = validJWTSecret
				c.API.Port = 70000
			},
			wantErr: true,
		},
		{
			name:    "missing jwt secret",
			modify:  func(c *Config) {},
			wantErr: true,
		},
		{
			name:    "short jwt secret",
			modify:  func(c *Config) { c.Security.JWT.Secret = "too-short" },
			wantErr: true,
		},
		{
			name: "influxdb enabled without url",
			modify: func(c *Config) {
				c.Security.JWT.Secret = validJWTSecret
				c.InfluxDB.Enabled = true
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
