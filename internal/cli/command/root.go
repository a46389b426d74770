// Package command defines the authtoken command line tool: token minting,
// stats service queries and known-vector files.
package command

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"bfstats/internal/cli/output"
	"bfstats/internal/config"
	"bfstats/internal/logger"
	"bfstats/internal/stats"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

func App() *cli.App {
	return &cli.App{
		Name:    "authtoken",
		Usage:   "mint stats service auth tokens and query the stats service",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			TokenCommand(),
			QueryCommand(),
			PlayerInfoCommand(),
			SearchCommand(),
			AwardsCommand(),
			BackendCommand(),
			VectorsCommand(),
			ValidateCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Usage:   "stats service host, optionally with a scheme",
			EnvVars: []string{"STATS_HOST"},
			Value:   config.DefaultStatsHost,
		},
		&cli.Uint64Flag{
			Name:    "pid",
			Usage:   "player id the requests authenticate as",
			EnvVars: []string{"STATS_AUTH_PID"},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "request timeout",
			EnvVars: []string{"STATS_TIMEOUT"},
			Value:   10 * time.Second,
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "debug enables request logging on stderr",
			EnvVars: []string{"LOG_LEVEL"},
			Value:   "warn",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: text, json, yaml",
			Value:   "text",
		},
	}
}

func uint32Flag(c *cli.Context, name string) (uint32, error) {
	v := c.Uint64(name)
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("--%s %d does not fit in 32 bits", name, v)
	}
	return uint32(v), nil
}

func newClient(c *cli.Context) (*stats.Client, error) {
	pid, err := uint32Flag(c, "pid")
	if err != nil {
		return nil, err
	}
	return stats.NewClient(c.String("host"), pid,
		stats.WithHTTPClient(&http.Client{Timeout: c.Duration("timeout")}),
		stats.WithLogger(logger.NewConsole(c.String("log-level"))),
	)
}

func render(c *cli.Context, data any) error {
	f, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}
	return output.NewFormatter(f).Format(c.App.Writer, data)
}
