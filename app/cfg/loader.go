package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./agendazap.db" description:"Path to the SQLite database file"`

	// Ingestion configuration
	ExportsDir   string `long:"exports-dir" env:"EXPORTS_DIR" default:"./exports" description:"Directory scanned for appointment export files (*.csv)"`
	InstancesDir string `long:"instances-dir" env:"INSTANCES_DIR" default:"./instances" description:"Directory containing instance mapping files"`

	// Messaging gateway configuration
	GatewayURL     string `long:"gateway-url" env:"GATEWAY_URL" default:"http://localhost:8081" description:"Base URL of the messaging gateway"`
	GatewayTimeout int    `long:"gateway-timeout" env:"GATEWAY_TIMEOUT" default:"30" description:"Gateway request timeout in seconds"`
	OrgName        string `long:"org-name" env:"ORG_NAME" default:"Secretaria Municipal de Saúde de Bebedouro" description:"Organization name interpolated into message greetings"`

	// Scheduling configuration
	SchedulerInterval int `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Export directory scan interval in seconds"`
	SweepInterval     int `long:"sweep-interval" env:"SWEEP_INTERVAL" default:"3600" description:"Due-reminder sweep interval in seconds"`
	WorkerCount       int `long:"worker-count" env:"WORKER_COUNT" default:"1" description:"Number of background workers (keep 1 for single-writer processing)"`

	// HTTP configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authenticated endpoints (optional)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"America/Sao_Paulo" description:"Timezone used for reminder-date comparison"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		ExportsDir:        raw.ExportsDir,
		InstancesDir:      raw.InstancesDir,
		GatewayURL:        raw.GatewayURL,
		GatewayTimeout:    raw.GatewayTimeout,
		OrgName:           raw.OrgName,
		SchedulerInterval: raw.SchedulerInterval,
		SweepInterval:     raw.SweepInterval,
		WorkerCount:       raw.WorkerCount,
		Port:              raw.Port,
		APIAccessKey:      raw.APIAccessKey,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	time.Local = loc
	return nil
}
