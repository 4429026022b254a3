package config

const (
	defaultDataDir                = "~/.local/share/supportflow"
	defaultLogDir                 = "~/.local/share/supportflow/logs"
	defaultAPIBind                = "127.0.0.1:7490"
	defaultProviderTimeoutSeconds = 30
	defaultAtlasURL               = "http://localhost:8001/mcp"
	defaultCommonURL              = "http://localhost:8002/mcp"
	defaultFailurePolicy          = FailurePolicyRetry
	defaultMaxStageAttempts       = 3
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultEventsSubject          = "supportflow.workflows"

	// ProviderAtlas serves external API, database, and notification abilities.
	ProviderAtlas = "atlas"
	// ProviderCommon serves text processing, calculation, and validation abilities.
	ProviderCommon = "common"

	FailurePolicyRetry = "retry"
	FailurePolicyAbort = "abort"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Providers: map[string]Provider{
			ProviderAtlas: {
				URL:            defaultAtlasURL,
				Capabilities:   []string{"external_api", "database_operations", "notifications"},
				TimeoutSeconds: defaultProviderTimeoutSeconds,
			},
			ProviderCommon: {
				URL:            defaultCommonURL,
				Capabilities:   []string{"text_processing", "calculations", "validations"},
				TimeoutSeconds: defaultProviderTimeoutSeconds,
			},
		},
		Workflow: Workflow{
			FailurePolicy:    defaultFailurePolicy,
			MaxStageAttempts: defaultMaxStageAttempts,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Events: Events{
			Subject: defaultEventsSubject,
		},
		Metrics: Metrics{
			Enabled: true,
		},
	}
}
