// Where: internal/config/config.go
// What: Runtime configuration for the scheduled scaler.
// Why: Build one Config at process start and thread it through every component.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/poruru/ecs-scheduled-scaling/internal/constants"
)

const (
	DefaultRegion             = "eu-west-1"
	DefaultTableName          = "services-desiredCount"
	DefaultLaunchType         = "EC2"
	DefaultSchedulingStrategy = "REPLICA"
	DefaultUpTrigger          = "ECSScheduledScaling-Up"
	DefaultDownTrigger        = "ECSScheduledScaling-Down"
	DefaultTableWaitTimeout   = 5 * time.Minute
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
)

// Config holds every process-wide setting. Field tags drive both the YAML
// config file and environment variable lookup.
type Config struct {
	Cluster            string        `yaml:"cluster" envconfig:"ECS_CLUSTER"`
	Region             string        `yaml:"region" envconfig:"SCALING_REGION"`
	TableName          string        `yaml:"table_name" envconfig:"SCALING_TABLE_NAME"`
	TableWaitTimeout   time.Duration `yaml:"table_wait_timeout" envconfig:"SCALING_TABLE_WAIT_TIMEOUT"`
	LaunchType         string        `yaml:"launch_type" envconfig:"SCALING_LAUNCH_TYPE"`
	SchedulingStrategy string        `yaml:"scheduling_strategy" envconfig:"SCALING_SCHEDULING_STRATEGY"`
	UpTrigger          string        `yaml:"up_trigger" envconfig:"SCALING_UP_TRIGGER"`
	DownTrigger        string        `yaml:"down_trigger" envconfig:"SCALING_DOWN_TRIGGER"`
	ECSEndpoint        string        `yaml:"ecs_endpoint" envconfig:"SCALING_ECS_ENDPOINT"`
	DynamoDBEndpoint   string        `yaml:"dynamodb_endpoint" envconfig:"SCALING_DYNAMODB_ENDPOINT"`
	LogLevel           string        `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat          string        `yaml:"log_format" envconfig:"LOG_FORMAT"`
}

// Overrides carries CLI flag values. Empty fields leave the loaded value alone.
type Overrides struct {
	Cluster   string
	Region    string
	TableName string
	LogLevel  string
	LogFormat string
}

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// File is an optional YAML config path. When empty, SCALING_CONFIG_FILE is used.
	File      string
	Overrides Overrides
}

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		Region:             DefaultRegion,
		TableName:          DefaultTableName,
		TableWaitTimeout:   DefaultTableWaitTimeout,
		LaunchType:         DefaultLaunchType,
		SchedulingStrategy: DefaultSchedulingStrategy,
		UpTrigger:          DefaultUpTrigger,
		DownTrigger:        DefaultDownTrigger,
		LogLevel:           DefaultLogLevel,
		LogFormat:          DefaultLogFormat,
	}
}

// Load resolves configuration in order: defaults, config file, environment,
// then CLI overrides. The table name template is rendered last.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	path := strings.TrimSpace(opts.File)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(constants.EnvConfigFile))
	}
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	opts.Overrides.apply(&cfg)
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	tableName, err := RenderTableName(cfg.TableName, cfg)
	if err != nil {
		return Config{}, err
	}
	cfg.TableName = tableName
	return cfg, nil
}

func (o Overrides) apply(cfg *Config) {
	if v := strings.TrimSpace(o.Cluster); v != "" {
		cfg.Cluster = v
	}
	if v := strings.TrimSpace(o.Region); v != "" {
		cfg.Region = v
	}
	if v := strings.TrimSpace(o.TableName); v != "" {
		cfg.TableName = v
	}
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(o.LogFormat); v != "" {
		cfg.LogFormat = v
	}
}

func (c *Config) normalize() {
	c.Cluster = strings.TrimSpace(c.Cluster)
	c.Region = strings.TrimSpace(c.Region)
	c.TableName = strings.TrimSpace(c.TableName)
	c.LaunchType = strings.ToUpper(strings.TrimSpace(c.LaunchType))
	c.SchedulingStrategy = strings.ToUpper(strings.TrimSpace(c.SchedulingStrategy))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Cluster == "" {
		return fmt.Errorf("cluster is required (set %s or --cluster)", constants.EnvCluster)
	}
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if c.TableName == "" {
		return fmt.Errorf("table name is required")
	}
	if c.TableWaitTimeout <= 0 {
		return fmt.Errorf("table wait timeout must be positive, got %s", c.TableWaitTimeout)
	}
	switch c.LaunchType {
	case "EC2", "FARGATE", "EXTERNAL":
	default:
		return fmt.Errorf("unsupported launch type: %s", c.LaunchType)
	}
	// Daemon services run one task per instance and have no desired count to restore.
	if c.SchedulingStrategy != DefaultSchedulingStrategy {
		return fmt.Errorf("unsupported scheduling strategy: %s", c.SchedulingStrategy)
	}
	if strings.TrimSpace(c.UpTrigger) == "" || strings.TrimSpace(c.DownTrigger) == "" {
		return fmt.Errorf("both trigger names are required")
	}
	if c.UpTrigger == c.DownTrigger {
		return fmt.Errorf("up and down triggers must differ (both %q)", c.UpTrigger)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported log format: %s", c.LogFormat)
	}
	return nil
}
