package cfg

import (
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		DBPath:            "./test.db",
		ExportsDir:        "./exports",
		InstancesDir:      "./instances",
		GatewayURL:        "http://localhost:8081",
		GatewayTimeout:    30,
		OrgName:           "Secretaria de Saúde",
		SchedulerInterval: 30,
		SweepInterval:     3600,
		WorkerCount:       1,
		Port:              "8080",
		APIAccessKey:      "test-key",
		Timezone:          "America/Sao_Paulo",
		Debug:             true,
		Version:           "test-version",
	}

	if cfg.DBPath != "./test.db" {
		t.Errorf("Expected db path './test.db', got '%s'", cfg.DBPath)
	}
	if cfg.ExportsDir != "./exports" {
		t.Errorf("Expected exports dir './exports', got '%s'", cfg.ExportsDir)
	}
	if cfg.InstancesDir != "./instances" {
		t.Errorf("Expected instances dir './instances', got '%s'", cfg.InstancesDir)
	}
	if cfg.GatewayURL != "http://localhost:8081" {
		t.Errorf("Expected gateway URL 'http://localhost:8081', got '%s'", cfg.GatewayURL)
	}
	if cfg.GatewayTimeout != 30 {
		t.Errorf("Expected gateway timeout 30, got %d", cfg.GatewayTimeout)
	}
	if cfg.OrgName != "Secretaria de Saúde" {
		t.Errorf("Expected org name 'Secretaria de Saúde', got '%s'", cfg.OrgName)
	}
	if cfg.SchedulerInterval != 30 {
		t.Errorf("Expected scheduler interval 30, got %d", cfg.SchedulerInterval)
	}
	if cfg.SweepInterval != 3600 {
		t.Errorf("Expected sweep interval 3600, got %d", cfg.SweepInterval)
	}
	if cfg.WorkerCount != 1 {
		t.Errorf("Expected worker count 1, got %d", cfg.WorkerCount)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.APIAccessKey)
	}
	if cfg.Timezone != "America/Sao_Paulo" {
		t.Errorf("Expected timezone 'America/Sao_Paulo', got '%s'", cfg.Timezone)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
	if cfg.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", cfg.Version)
	}
}

func TestApplyTimezone(t *testing.T) {
	original := time.Local
	defer func() { time.Local = original }()

	if err := applyTimezone("America/Sao_Paulo"); err != nil {
		t.Errorf("Expected valid timezone to apply, got: %v", err)
	}
	if time.Local.String() != "America/Sao_Paulo" {
		t.Errorf("Expected local timezone to change, got: %s", time.Local)
	}

	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("Expected error for unknown timezone")
	}

	if err := applyTimezone(""); err != nil {
		t.Errorf("Expected empty timezone to be a no-op, got: %v", err)
	}
}
