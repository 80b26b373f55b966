package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/trolley/cli/render"
)

// StatsCommand returns the stats command.
// Stats reports the session metrics gathered during this invocation's
// cart load (request outcomes, fallbacks, snapshot health).
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show session statistics",
		Flags:  append(ReadOnlyFlags(), EngineFlags()...),
		Action: statsAction,
	}
}

func statsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	e, err := newEngine(c)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.store.Load(c.Context); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	snap := e.collector.Snapshot()
	if c.Bool("tui") {
		return r.RenderTUI("stats_session", snap)
	}
	return r.Render(snap)
}
