package config

import (
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("APPENV", "test")
	t.Setenv("APPPORT", "")
	t.Setenv("STOREBACKEND", "")
	t.Setenv("PATIENTFILE", "")

	ResetConfigForTest()
	t.Cleanup(ResetConfigForTest)

	cfg := LoadConfig()
	if cfg == nil {
		t.Fatalf("expected non-nil config")
	}
	if cfg.AppPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.AppPort)
	}
	if cfg.StoreBackend != "file" {
		t.Fatalf("expected default store backend file, got %q", cfg.StoreBackend)
	}
	if cfg.PatientFile != "patients.json" {
		t.Fatalf("expected default patient file, got %q", cfg.PatientFile)
	}
}

func TestLoadConfig_ReadsEnvironment(t *testing.T) {
	t.Setenv("APPENV", "test")
	t.Setenv("APPNAME", "patient-records")
	t.Setenv("APPPORT", "9000")
	t.Setenv("STOREBACKEND", "mysql")
	t.Setenv("PATIENTFILE", "/tmp/patients.json")

	ResetConfigForTest()
	t.Cleanup(ResetConfigForTest)

	cfg := LoadConfig()
	if cfg.AppName != "patient-records" {
		t.Fatalf("unexpected app name: %q", cfg.AppName)
	}
	if cfg.AppPort != 9000 {
		t.Fatalf("unexpected port: %d", cfg.AppPort)
	}
	if cfg.StoreBackend != "mysql" {
		t.Fatalf("unexpected store backend: %q", cfg.StoreBackend)
	}
}

// Test that ConnectDatabase uses in-memory SQLite when APPENV=test
func TestConnectDatabase_TestEnv(t *testing.T) {
	t.Setenv("APPENV", "test")

	ResetConfigForTest()
	t.Cleanup(ResetConfigForTest)

	db, err := ConnectDatabase()
	if err != nil {
		t.Fatalf("ConnectDatabase failed in test env: %v", err)
	}
	if db == nil {
		t.Fatalf("expected non-nil DB connection")
	}
}
