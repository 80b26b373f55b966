package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/trolley/cli/render"
)

// ShowCommand returns the show command: load and display the cart.
func ShowCommand() *cli.Command {
	return &cli.Command{
		Name:   "show",
		Usage:  "Show the current cart",
		Flags:  append(ReadOnlyFlags(), EngineFlags()...),
		Action: showAction,
	}
}

func showAction(c *cli.Context) error {
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

	state := e.store.State()
	if c.Bool("tui") {
		return r.RenderTUI("show_cart", state)
	}
	return r.Render(state)
}
