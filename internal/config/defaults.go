package config

const (
	defaultConfigPath          = "~/.config/devlog/config.toml"
	defaultLogDir              = "~/.local/share/devlog/logs"
	defaultLogName             = "devlog"
	defaultConsoleLevel        = "info"
	defaultFileLevel           = "info"
	defaultVerbosity           = 1
	defaultColorMode           = "always"
	defaultInteractiveMode     = "auto"
	defaultPrintLevel          = "info"
	defaultLogRetentionDays    = 30
	defaultMaxSizeMB           = 100
	defaultMaxBackups          = 3
	defaultProgressLogMS       = 1000
	defaultProgressRedrawMS    = 200
	defaultProgressUnit        = "items"
	defaultLeakThreshold       = 1000
	defaultProcRoot            = "/proc"
	defaultNetworkTarget       = "8.8.8.8:53"
	defaultNetworkURL          = "https://www.google.com"
	defaultNetworkTimeoutMS    = 1000
	defaultNetworkConcurrency  = 5
	defaultNetworkLogLevel     = "debug"
	defaultMetricsNamespace    = "devlog"
	maxNetworkConcurrencyLimit = 64
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Logging: Logging{
			Name:          defaultLogName,
			Dir:           defaultLogDir,
			ConsoleLevel:  defaultConsoleLevel,
			FileLevel:     defaultFileLevel,
			Verbosity:     defaultVerbosity,
			Color:         defaultColorMode,
			Interactive:   defaultInteractiveMode,
			PrintLevel:    defaultPrintLevel,
			RetentionDays: defaultLogRetentionDays,
			MaxSizeMB:     defaultMaxSizeMB,
			MaxBackups:    defaultMaxBackups,
		},
		Progress: Progress{
			LogIntervalMS:    defaultProgressLogMS,
			RedrawIntervalMS: defaultProgressRedrawMS,
			Unit:             defaultProgressUnit,
		},
		Monitor: Monitor{
			LeakThreshold: defaultLeakThreshold,
			ProcRoot:      defaultProcRoot,
		},
		Network: Network{
			Target:      defaultNetworkTarget,
			URLs:        []string{defaultNetworkURL},
			TimeoutMS:   defaultNetworkTimeoutMS,
			Concurrency: defaultNetworkConcurrency,
			LogLevel:    defaultNetworkLogLevel,
		},
		Metrics: Metrics{
			Namespace: defaultMetricsNamespace,
		},
	}
}
