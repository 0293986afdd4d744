package config

const (
	defaultEnvBaseDir            = "~/.local/share/pykit/envs"
	defaultDownloadDir           = "~/Downloads/pykit"
	defaultCertDir               = "~/.local/share/pykit/certs"
	defaultLogDir                = "~/.local/share/pykit/logs"
	defaultPythonBinary          = "python3"
	defaultCreateTimeoutSeconds  = 120
	defaultInstallTimeoutSeconds = 600
	defaultServeBind             = "localhost:4443"
	defaultServeCommonName       = "localhost"
	defaultServeValidDays        = 3650
	defaultHistoryRetentionDays  = 180
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			EnvBaseDir:  defaultEnvBaseDir,
			DownloadDir: defaultDownloadDir,
			CertDir:     defaultCertDir,
			LogDir:      defaultLogDir,
		},
		Python: Python{
			Binary:                defaultPythonBinary,
			CreateTimeoutSeconds:  defaultCreateTimeoutSeconds,
			InstallTimeoutSeconds: defaultInstallTimeoutSeconds,
		},
		OnePassword: OnePassword{
			Vault: "Private",
		},
		Serve: Serve{
			Bind:       defaultServeBind,
			CommonName: defaultServeCommonName,
			ValidDays:  defaultServeValidDays,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetentionDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
