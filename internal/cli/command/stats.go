package command

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/urfave/cli/v2"

	"bfstats/internal/stats"
)

func QueryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "call a stats function and print the parsed response",
		ArgsUsage: "<function> [key=value...]",
		Action:    queryAction,
	}
}

// parseParams reads key=value arguments. A repeated key keeps every value.
func parseParams(args []string) (url.Values, error) {
	params := url.Values{}
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("parameter %q is not key=value", a)
		}
		params.Add(k, v)
	}
	return params, nil
}

func queryAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("function name required")
	}
	params, err := parseParams(c.Args().Tail())
	if err != nil {
		return err
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	res, err := client.Query(c.Context, c.Args().First(), params)
	if res != nil {
		if perr := render(c, res); perr != nil {
			return perr
		}
	}
	return err
}

func PlayerInfoCommand() *cli.Command {
	return &cli.Command{
		Name:  "player-info",
		Usage: "print typed player info",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Value: "ovr", Usage: "ovr or ply"},
		},
		Action: func(c *cli.Context) error {
			return wrapped(c, func(w *stats.Wrapper) ([]stats.Record, error) {
				return w.PlayerInfo(c.Context, c.String("mode"))
			})
		},
	}
}

func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "search players by nick",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "nick", Required: true},
		},
		Action: func(c *cli.Context) error {
			return wrapped(c, func(w *stats.Wrapper) ([]stats.Record, error) {
				return w.PlayerSearch(c.Context, c.String("nick"))
			})
		},
	}
}

func AwardsCommand() *cli.Command {
	return &cli.Command{
		Name:  "awards",
		Usage: "print the awards of a player",
		Flags: []cli.Flag{
			&cli.Uint64Flag{Name: "player", Required: true, Usage: "player id"},
		},
		Action: func(c *cli.Context) error {
			pid, err := uint32Flag(c, "player")
			if err != nil {
				return err
			}
			return wrapped(c, func(w *stats.Wrapper) ([]stats.Record, error) {
				return w.Awards(c.Context, pid)
			})
		},
	}
}

func BackendCommand() *cli.Command {
	return &cli.Command{
		Name:  "backend",
		Usage: "print the stats backend info",
		Action: func(c *cli.Context) error {
			return wrapped(c, func(w *stats.Wrapper) ([]stats.Record, error) {
				return w.BackendInfo(c.Context)
			})
		},
	}
}

func wrapped(c *cli.Context, call func(*stats.Wrapper) ([]stats.Record, error)) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	recs, err := call(stats.NewWrapper(client))
	if err != nil {
		return err
	}
	return render(c, recs)
}
