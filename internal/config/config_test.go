package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.JWT.TTL != 30*24*time.Hour {
		t.Errorf("JWT TTL = %v, want 30 days", cfg.JWT.TTL)
	}
	if cfg.Inference.Timeout != 60*time.Second {
		t.Errorf("inference timeout = %v, want 60s", cfg.Inference.Timeout)
	}
	if cfg.Admin.Email != "admin@pneumodetect.com" {
		t.Errorf("super admin email = %q", cfg.Admin.Email)
	}
	if cfg.Server.Address() != "0.0.0.0:5000" {
		t.Errorf("address = %q", cfg.Server.Address())
	}
	if cfg.Dialogue.Model != "gemini-2.5-flash" {
		t.Errorf("dialogue model = %q", cfg.Dialogue.Model)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when JWT_SECRET is empty")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET is required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_ProductionRequirements(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_SSLMODE", "disable")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected production validation to fail")
	}

	for _, want := range []string{
		"JWT_SECRET must be at least 32 characters",
		"DB_PASSWORD is required",
		"DB_SSLMODE=disable is not allowed",
		"GEMINI_API_KEY is required",
		"ADMIN_PASSWORD is required",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestLoad_UnsupportedDrivers(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("STORAGE_DRIVER", "ftp")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for unsupported drivers")
	}
	if !strings.Contains(err.Error(), `DB_DRIVER "mysql"`) || !strings.Contains(err.Error(), `STORAGE_DRIVER "ftp"`) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_S3RequiresBucket(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("S3_BUCKET", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "S3_BUCKET is required") {
		t.Fatalf("expected S3_BUCKET error, got %v", err)
	}
}

func TestLoad_RateLimitsMustBePositive(t *testing.T) {
	for _, rpm := range []string{"0", "-5"} {
		t.Run("auth rpm "+rpm, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "dev-secret")
			t.Setenv("RATE_LIMIT_AUTH_RPM", rpm)

			if _, err := Load(); err == nil || !strings.Contains(err.Error(), "RATE_LIMIT_AUTH_RPM must be positive") {
				t.Fatalf("expected RATE_LIMIT_AUTH_RPM error, got %v", err)
			}
		})
	}

	t.Run("burst", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "dev-secret")
		t.Setenv("RATE_LIMIT_BURST", "0")

		if _, err := Load(); err == nil || !strings.Contains(err.Error(), "RATE_LIMIT_BURST must be positive") {
			t.Fatalf("expected burst error, got %v", err)
		}
	})
}

func TestAdminPassword(t *testing.T) {
	cfg := &Config{}
	pw, usedDefault := cfg.AdminPassword()
	if !usedDefault || pw == "" {
		t.Errorf("expected default password, got %q (default=%v)", pw, usedDefault)
	}

	cfg.Admin.Password = "from-env"
	pw, usedDefault = cfg.AdminPassword()
	if usedDefault || pw != "from-env" {
		t.Errorf("expected configured password, got %q (default=%v)", pw, usedDefault)
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	if got := d.DSN(); !strings.Contains(got, "host=db") || !strings.Contains(got, "dbname=n") {
		t.Errorf("DSN = %q", got)
	}

	d.URL = "postgres://u:p@db/n"
	if got := d.DSN(); got != d.URL {
		t.Errorf("DSN should prefer URL, got %q", got)
	}

	s := DatabaseConfig{Driver: "sqlite", SQLitePath: "file.db"}
	if got := s.DSN(); got != "file.db" {
		t.Errorf("sqlite DSN = %q", got)
	}
}
