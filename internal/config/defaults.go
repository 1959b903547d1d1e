package config

const (
	defaultLogDir       = "~/.local/share/mkvbatch/logs"
	defaultStateDir     = "~/.local/share/mkvbatch"
	defaultMkvmerge     = "mkvmerge"
	defaultMkvextract   = "mkvextract"
	defaultProbeTimeout = 120
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Tools: Tools{
			Mkvmerge:     defaultMkvmerge,
			Mkvextract:   defaultMkvextract,
			ProbeTimeout: defaultProbeTimeout,
		},
		Merge: Merge{
			WarnOnSkippedTracks: true,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
