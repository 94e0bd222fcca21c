package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/tasks"
)

// ProfileShow prints the signed-in user's profile.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	me, err := r.currentUser()
	if err != nil {
		return err
	}

	profile, err := load(ctx, tasks.NewOwnProfileLoader(r.backend, r.deps()), me.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, cmd.Bool("pretty"))
	}
	r.writeProfile(profile)
	return nil
}

// ProfileEdit saves the editable fields. Flags that are not set keep their current value.
func (r *Runner) ProfileEdit(ctx context.Context, cmd *cli.Command) error {
	editor := tasks.NewProfileEditor(r.backend, r.deps())
	current, err := editor.Load(ctx)
	if err != nil {
		return err
	}

	update := current.Editable()
	for flag, field := range map[string]*string{
		"name":     &update.Name,
		"bio":      &update.Bio,
		"avatar":   &update.AvatarURL,
		"cover":    &update.CoverURL,
		"location": &update.Location,
	} {
		if cmd.IsSet(flag) {
			*field = cmd.String(flag)
		}
	}

	saved, err := editor.Save(ctx, update)
	if err != nil {
		return err
	}

	r.logger.Info("profile saved", "user", saved.Username)
	r.writePlain("✓ Profile saved\n\n")
	r.writeProfile(saved)
	return nil
}

func (r *Runner) writeProfile(p models.UserProfile) {
	r.writePlainHeader(p.Name + " (@" + p.Username + ")")
	r.writePlain("Email:     %s\n", p.Email)
	if p.Bio != "" {
		r.writePlain("Bio:       %s\n", p.Bio)
	}
	if p.Location != "" {
		r.writePlain("Location:  %s\n", p.Location)
	}
	if p.RegisteredAt != "" {
		r.writePlain("Joined:    %s\n", p.RegisteredAt)
	}
	r.writeStats(p.Stats)
}
