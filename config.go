package tilex

import "github.com/go-stdlog/stdlog"

type Config struct {
	// TileDir is the root directory holding the graph tiles to pack. It is
	// walked recursively, and everything below it ends up in the extract.
	TileDir string

	// ExtractPath is the path the tile extract tar is written to. Any
	// existing file at this path is truncated.
	ExtractPath string

	// TrafficPath is the path the traffic skeleton tar is written to when
	// Traffic is set.
	TrafficPath string

	// Traffic toggles deriving the traffic skeleton sidecar after the
	// primary extract is finished.
	Traffic bool

	// Verbosity selects how much the builder logs: 0 is silent, 1 reports
	// pass-level progress, 2 and above adds per-tile detail.
	Verbosity int

	// Logger allows a given stdlog.Logger instance to be set as the system
	// logger. If unset, no logs will be generated.
	Logger stdlog.Logger
}

func (c Config) GetLogger() stdlog.Logger {
	if c.Logger != nil && c.Verbosity > 0 {
		return c.Logger.Named("tilex")
	}
	return stdlog.Discard
}

func (c Config) GetTraffic() bool { return c.Traffic }

func (c Config) Detailed() bool { return c.Verbosity >= 2 }
