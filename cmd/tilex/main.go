// Command tilex packs a directory tree of graph tiles into a tar extract
// with a leading index member, optionally deriving a zero-filled traffic
// skeleton tar alongside it. Paths come from a JSON config file compatible
// with the routing engine's own layout:
//
//	{"mjolnir": {"tile_dir": ..., "tile_extract": ..., "traffic_extract": ...}}
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/go-stdlog/stdlog"

	"github.com/heyvito/tilex"
	"github.com/heyvito/tilex/errors"
)

type mjolnirConfig struct {
	TileDir        string `json:"tile_dir"`
	TileExtract    string `json:"tile_extract"`
	TrafficExtract string `json:"traffic_extract"`
}

type fileConfig struct {
	Mjolnir mjolnirConfig `json:"mjolnir"`
}

func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigError{Path: path, Err: err}
	}
	var conf fileConfig
	if err = json.Unmarshal(data, &conf); err != nil {
		return nil, errors.ConfigError{Path: path, Err: err}
	}
	return &conf, nil
}

func main() {
	configPath := flag.String("config", "", "Absolute or relative path to the config JSON")
	traffic := flag.Bool("traffic", false, "Also build a traffic skeleton tar")
	verbose := flag.Bool("v", false, "Report pass-level progress")
	detailed := flag.Bool("vv", false, "Report per-tile detail")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "missing required flag: -config")
		flag.Usage()
		os.Exit(1)
	}

	verbosity := 0
	switch {
	case *detailed:
		verbosity = 2
	case *verbose:
		verbosity = 1
	}

	conf, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	builder, err := tilex.New(tilex.Config{
		TileDir:     conf.Mjolnir.TileDir,
		ExtractPath: conf.Mjolnir.TileExtract,
		TrafficPath: conf.Mjolnir.TrafficExtract,
		Traffic:     *traffic,
		Verbosity:   verbosity,
		Logger:      stdlog.NewStd(os.Stderr),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err = builder.Build(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		_ = builder.Close()
		os.Exit(1)
	}
	if err = builder.Close(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
