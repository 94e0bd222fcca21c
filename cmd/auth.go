package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/shared"
	"github.com/desertthunder/hitnote/internal/tasks"
)

// password returns the --password flag, prompting for it when unset.
func (r *Runner) password(cmd *cli.Command) (string, error) {
	if p := cmd.String("password"); p != "" {
		return p, nil
	}
	p, err := r.readLine("Password: ")
	if err != nil {
		return "", fmt.Errorf("%w: password", shared.ErrMissingArgument)
	}
	return p, nil
}

// AuthLogin exchanges credentials for a token and stores the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	password, err := r.password(cmd)
	if err != nil {
		return err
	}

	auth := tasks.NewAuthController(r.backend, r.session, r.deps())
	user, err := auth.Login(ctx, models.Credentials{Email: cmd.String("email"), Password: password})
	if err != nil {
		return err
	}

	return r.writePlain("✓ Signed in as %s (@%s)\n", user.Name, user.Username)
}

// AuthLogout clears the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if !r.session.Authenticated() {
		return r.writePlain("Not signed in\n")
	}

	r.session.OnLogout(func() {
		r.writePlain("✓ Signed out\n")
		r.writePlain("Run 'hitnote auth login' to sign in again.\n")
	})

	auth := tasks.NewAuthController(r.backend, r.session, r.deps())
	return auth.Logout()
}

// AuthRegister creates an account. It does not sign in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	password, err := r.password(cmd)
	if err != nil {
		return err
	}

	auth := tasks.NewAuthController(r.backend, r.session, r.deps())
	user, err := auth.Register(ctx, models.Registration{
		Name:     cmd.String("name"),
		Username: cmd.String("username"),
		Email:    cmd.String("email"),
		Password: password,
	})
	if err != nil {
		return err
	}

	r.writePlain("✓ Account created for %s\n", user.Email)
	return r.writePlain("Run 'hitnote auth login --email %s' to sign in.\n", user.Email)
}

// AuthStatus reports the stored session.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	snap := r.session.Snapshot()

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"state":   snap.State.String(),
			"profile": snap.Profile,
		}, cmd.Bool("pretty"))
	}

	if !snap.Authenticated() || snap.Profile == nil {
		return r.writePlain("Not signed in\n")
	}
	return r.writePlain("Signed in as %s (@%s, id %d)\n", snap.Profile.Name, snap.Profile.Username, snap.Profile.ID)
}
