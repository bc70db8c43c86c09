package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	LogLevel      string // sets the log level (zap log level values)
	LogFormat     string // text vs json
	LogFilter     string // zapfilter rules for named loggers
	ErgastURL     string // base URL of the external standings/results API
	CacheDir      string // directory for the on-disk response cache
	LapsFile      string // path to a session lap table (CSV export)
	SessionName   string // display name of the loaded session
	ScoringConfig string // path to scoring rules yaml (points tables, aliases, overrides)
	HTTPAddr      string // listen addr for the REST API server
	FetchWorkers  int    // max parallel round fetches during standings replay
	WatchScoring  bool   // reload scoring rules on file change (server mode)
)
