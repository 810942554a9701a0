package config

// InstancesFile represents one instance mapping file
type InstancesFile struct {
	Instances []InstanceConfig `yaml:"instances"`
}

// InstanceConfig maps a subscriber to a messaging gateway instance
type InstanceConfig struct {
	SubscriberID string `yaml:"subscriber_id"`
	InstanceID   string `yaml:"instance_id"`
	InstanceName string `yaml:"instance_name"`
	Token        string `yaml:"token"`
}
