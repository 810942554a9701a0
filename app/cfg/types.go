package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Ingestion configuration
	ExportsDir   string
	InstancesDir string

	// Messaging gateway configuration
	GatewayURL     string
	GatewayTimeout int
	OrgName        string

	// Scheduling configuration
	SchedulerInterval int
	SweepInterval     int
	WorkerCount       int

	// HTTP configuration
	Port         string
	APIAccessKey string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
