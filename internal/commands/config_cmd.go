// Where: internal/commands/config_cmd.go
// What: config show command.
// Why: Show which cluster, table, and triggers a run would use after all layers are applied.
package commands

import (
	"fmt"
	"io"

	"github.com/poruru/ecs-scheduled-scaling/internal/config"
	"gopkg.in/yaml.v3"
)

// ConfigCmd groups configuration subcommands.
type ConfigCmd struct {
	Show ConfigShowCmd `cmd:"" help:"Print the effective configuration as YAML"`
}

type ConfigShowCmd struct{}

// configView mirrors config.Config with durations rendered as strings.
type configView struct {
	Cluster            string `yaml:"cluster"`
	Region             string `yaml:"region"`
	TableName          string `yaml:"table_name"`
	TableWaitTimeout   string `yaml:"table_wait_timeout"`
	LaunchType         string `yaml:"launch_type"`
	SchedulingStrategy string `yaml:"scheduling_strategy"`
	UpTrigger          string `yaml:"up_trigger"`
	DownTrigger        string `yaml:"down_trigger"`
	ECSEndpoint        string `yaml:"ecs_endpoint,omitempty"`
	DynamoDBEndpoint   string `yaml:"dynamodb_endpoint,omitempty"`
	LogLevel           string `yaml:"log_level"`
	LogFormat          string `yaml:"log_format"`
}

func newConfigView(cfg config.Config) configView {
	return configView{
		Cluster:            cfg.Cluster,
		Region:             cfg.Region,
		TableName:          cfg.TableName,
		TableWaitTimeout:   cfg.TableWaitTimeout.String(),
		LaunchType:         cfg.LaunchType,
		SchedulingStrategy: cfg.SchedulingStrategy,
		UpTrigger:          cfg.UpTrigger,
		DownTrigger:        cfg.DownTrigger,
		ECSEndpoint:        cfg.ECSEndpoint,
		DynamoDBEndpoint:   cfg.DynamoDBEndpoint,
		LogLevel:           cfg.LogLevel,
		LogFormat:          cfg.LogFormat,
	}
}

func runConfigShow(cli CLI, _ Dependencies, out io.Writer) int {
	cfg, err := loadConfig(cli)
	if err != nil {
		return exitWithError(out, err)
	}
	data, err := yaml.Marshal(newConfigView(cfg))
	if err != nil {
		return exitWithError(out, fmt.Errorf("encode config: %w", err))
	}
	writeString(out, string(data))
	return 0
}
