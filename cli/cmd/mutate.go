package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/trolley/adapter"
	"github.com/pithecene-io/trolley/cart"
	"github.com/pithecene-io/trolley/cli/render"
	"github.com/pithecene-io/trolley/types"
)

// AddCommand returns the add command.
func AddCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a product to the cart",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "product",
				Aliases:  []string{"p"},
				Usage:    "Product identifier",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "qty",
				Aliases: []string{"q"},
				Usage:   "Quantity to add (clamped to 1..999)",
				Value:   1,
			},
			&cli.Int64Flag{
				Name:  "price",
				Usage: "Unit price in minor units (e.g. 1299 for 12.99)",
			},
			&cli.StringSliceFlag{
				Name:  "option",
				Usage: "Variant option as key=value (repeatable)",
			},
		}, append(ReadOnlyFlags(), EngineFlags()...)...),
		Action: addAction,
	}
}

func addAction(c *cli.Context) error {
	options, err := parseOptions(c.StringSlice("option"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 2)
	}

	return runMutation(c, adapter.ActionAdd, c.String("product"), func(e *engine) error {
		return e.store.AddLine(c.Context, c.String("product"), c.Int("qty"), c.Int64("price"), options)
	})
}

// RemoveCommand returns the remove command.
func RemoveCommand() *cli.Command {
	return &cli.Command{
		Name:  "remove",
		Usage: "Remove a product from the cart",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "product",
				Aliases:  []string{"p"},
				Usage:    "Product identifier",
				Required: true,
			},
		}, append(ReadOnlyFlags(), EngineFlags()...)...),
		Action: removeAction,
	}
}

func removeAction(c *cli.Context) error {
	return runMutation(c, adapter.ActionRemove, c.String("product"), func(e *engine) error {
		return e.store.RemoveLine(c.Context, c.String("product"))
	})
}

// SetCommand returns the set command: set a line's quantity.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:  "set",
		Usage: "Set a product's quantity (0 removes the line)",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "product",
				Aliases:  []string{"p"},
				Usage:    "Product identifier",
				Required: true,
			},
			&cli.IntFlag{
				Name:     "qty",
				Aliases:  []string{"q"},
				Usage:    "New quantity (clamped to 1..999; 0 removes)",
				Required: true,
			},
		}, append(ReadOnlyFlags(), EngineFlags()...)...),
		Action: setAction,
	}
}

func setAction(c *cli.Context) error {
	return runMutation(c, adapter.ActionUpdate, c.String("product"), func(e *engine) error {
		return e.store.UpdateQuantity(c.Context, c.String("product"), c.Int("qty"))
	})
}

// ClearCommand returns the clear command.
func ClearCommand() *cli.Command {
	return &cli.Command{
		Name:   "clear",
		Usage:  "Empty the cart",
		Flags:  append(ReadOnlyFlags(), EngineFlags()...),
		Action: clearAction,
	}
}

func clearAction(c *cli.Context) error {
	return runMutation(c, adapter.ActionClear, "", func(e *engine) error {
		return e.store.Clear(c.Context)
	})
}

// SyncCommand returns the sync command: push local lines to the server.
func SyncCommand() *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Push the local cart to the server and restore remote mode",
		Flags:  append(ReadOnlyFlags(), EngineFlags()...),
		Action: syncAction,
	}
}

func syncAction(c *cli.Context) error {
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
	if err := e.store.Sync(c.Context); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	e.publish(c.Context, adapter.ActionSync, "")
	return r.Render(e.store.State())
}

// runMutation wires the shared flow for cart mutations: hydrate, mutate,
// publish, render. A mutation whose remote write failed but whose local
// state was kept is reported as a warning, not a command failure.
func runMutation(c *cli.Context, action, productID string, mutate func(*engine) error) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for cart mutations", 1)
	}

	e, err := newEngine(c)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.store.Load(c.Context); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	if err := mutate(e); err != nil {
		if errors.Is(err, cart.ErrInvalidInput) {
			return cli.Exit(fmt.Sprintf("Error: %v", err), 2)
		}
		if e.store.Source() == types.SourceLocal {
			// Availability over consistency: the change is saved locally
			// and a later sync reconciles it.
			fmt.Fprintf(os.Stderr, "warning: backend unreachable, change saved locally (%v)\n", err)
		} else {
			return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
		}
	}

	e.publish(c.Context, action, productID)
	return r.Render(e.store.State())
}

// parseOptions turns repeated key=value flags into an option map.
func parseOptions(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	options := make(map[string]string, len(raw))
	for _, kv := range raw {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid option %q (expected key=value)", kv)
		}
		options[key] = value
	}
	return options, nil
}
