// Where: internal/constants/env.go
// What: Environment variable naming constants.
// Why: Centralize environment variable names to avoid typos and inconsistencies.
package constants

const (
	// Target selection
	EnvCluster = "ECS_CLUSTER"
	EnvRegion  = "SCALING_REGION"

	// Snapshot table
	EnvTableName        = "SCALING_TABLE_NAME"
	EnvTableWaitTimeout = "SCALING_TABLE_WAIT_TIMEOUT"

	// Service filters
	EnvLaunchType         = "SCALING_LAUNCH_TYPE"
	EnvSchedulingStrategy = "SCALING_SCHEDULING_STRATEGY"

	// Trigger names
	EnvUpTrigger   = "SCALING_UP_TRIGGER"
	EnvDownTrigger = "SCALING_DOWN_TRIGGER"

	// Endpoint overrides (local stacks)
	EnvECSEndpoint      = "SCALING_ECS_ENDPOINT"
	EnvDynamoDBEndpoint = "SCALING_DYNAMODB_ENDPOINT"
	EnvAccessKeyID      = "SCALING_ACCESS_KEY_ID"
	EnvSecretAccessKey  = "SCALING_SECRET_ACCESS_KEY"

	// Logging
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	// Config file
	EnvConfigFile = "SCALING_CONFIG_FILE"
)
