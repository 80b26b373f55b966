package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/trolley/adapter"
	"github.com/pithecene-io/trolley/cli/render"
)

// LoginCommand returns the login command.
// Signing in runs the cart merge: the guest cart folds into the user's
// remote cart exactly once.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and merge the guest cart into the user's cart",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Usage:    "User identifier",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "token",
				Usage:    "Bearer token",
				Required: true,
				EnvVars:  []string{"TROLLEY_TOKEN"},
			},
		}, append(ReadOnlyFlags(), EngineFlags()...)...),
		Action: loginAction,
	}
}

func loginAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	e, err := newEngine(c)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.gate.Authenticated() {
		return cli.Exit("Error: already signed in; run logout first", 2)
	}

	// Hydrate the guest cart so the merge sees current in-memory lines
	// even if the snapshot backend is unavailable.
	if err := e.store.Load(c.Context); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	e.state.UserID = c.String("user")
	e.state.Token = c.String("token")
	if err := saveSessionState(e.stateDir, e.state); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	// Fires the anonymous-to-authenticated transition; the store runs the
	// merge engine synchronously.
	e.gate.SignIn(e.state.UserID, e.state.Token)

	e.publish(c.Context, adapter.ActionMerge, "")
	return r.Render(e.store.State())
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Sign out and reset the in-memory cart",
		Flags:  append(ReadOnlyFlags(), EngineFlags()...),
		Action: logoutAction,
	}
}

func logoutAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	e, err := newEngine(c)
	if err != nil {
		return err
	}
	defer e.Close()

	// Clears the persisted token through the gate subscription.
	e.gate.SignOut()

	return r.Render(map[string]string{"status": "signed_out"})
}
