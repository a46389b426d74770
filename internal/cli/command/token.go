package command

import (
	hex "github.com/tmthrgd/go-hex"
	"github.com/urfave/cli/v2"

	"bfstats/internal/authtoken"
	"bfstats/internal/cli/output"
	"bfstats/internal/logger"
)

func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "print an auth token",
		Flags: []cli.Flag{
			&cli.Uint64Flag{Name: "id", Usage: "player or server id (defaults to --pid)"},
			&cli.BoolFlag{Name: "server", Usage: "set the server flag"},
			&cli.Uint64Flag{Name: "timestamp", Usage: "unix seconds, 0 for now"},
		},
		Action: tokenAction,
	}
}

func tokenAction(c *cli.Context) error {
	name := "pid"
	if c.IsSet("id") {
		name = "id"
	}
	id, err := uint32Flag(c, name)
	if err != nil {
		return err
	}
	ts, err := uint32Flag(c, "timestamp")
	if err != nil {
		return err
	}
	asm, err := authtoken.NewAssembler(authtoken.WithLogger(logger.NewConsole(c.String("log-level"))))
	if err != nil {
		return err
	}
	p, err := asm.Assemble(id, c.Bool("server"), ts)
	if err != nil {
		return err
	}
	token := authtoken.Seal(p)

	if f, _ := output.ParseFormat(c.String("output")); f == output.FormatText {
		return render(c, token)
	}
	pt := p.Bytes()
	return render(c, map[string]any{
		"token":         token,
		"id":            p.ID,
		"server":        p.Server,
		"timestamp":     p.Timestamp,
		"plaintext_hex": hex.EncodeToString(pt[:]),
	})
}
