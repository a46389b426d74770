package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"bfstats/internal/cli/output"
	"bfstats/internal/vector"
)

func VectorsCommand() *cli.Command {
	return &cli.Command{
		Name:  "vectors",
		Usage: "print a known-answer file for the token cipher",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Value: vector.DefaultCount},
			&cli.BoolFlag{Name: "random", Usage: "random plaintexts instead of single-bit ones"},
		},
		Action: func(c *cli.Context) error {
			mode := vector.KAT
			if c.Bool("random") {
				mode = vector.MMT
			}
			v, err := vector.Generate(vector.GenParams{Mode: mode, Count: c.Int("count")})
			if err != nil {
				return err
			}
			if f, _ := output.ParseFormat(c.String("output")); f == output.FormatText {
				_, err = io.WriteString(c.App.Writer, v.ToTXT())
				return err
			}
			return render(c, v)
		},
	}
}

func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "check a known-answer file, '-' reads stdin",
		ArgsUsage: "<file>",
		Action:    validateAction,
	}
}

func validateAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one file required")
	}
	r := c.App.Reader
	if name := c.Args().First(); name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	recs, err := vector.ParseFile(r)
	if err != nil {
		return err
	}
	res := vector.Validate(recs)
	if err := render(c, res); err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("%d of %d records failed", res.Failed, res.Total)
	}
	return nil
}
