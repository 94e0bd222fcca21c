package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/hitnote/internal/formatter"
	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/shared"
	"github.com/desertthunder/hitnote/internal/tasks"
)

// ListsMine prints the signed-in user's lists, or another user's public lists.
func (r *Runner) ListsMine(ctx context.Context, cmd *cli.Command) error {
	id, own, err := r.userArg(cmd)
	if err != nil {
		return err
	}

	var lists []models.Playlist
	if own {
		lists, err = tasks.NewListsController(r.backend, id, r.deps()).Load(ctx)
	} else {
		lists, err = load(ctx, tasks.NewUserListsLoader(r.backend, r.deps()), id)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(lists, cmd.Bool("pretty"))
	}
	if len(lists) == 0 {
		return r.writePlain("No lists yet\n")
	}
	for _, l := range lists {
		r.writePlain("%5d  %-32s %3d tracks  %s\n", l.ID, truncate(l.Name, 32), l.SongCount, shared.VisibilityString(l.Public))
	}
	return nil
}

// ListsShow prints a list and its tracks.
func (r *Runner) ListsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := r.intArg(cmd, "list-id")
	if err != nil {
		return err
	}

	detail, err := load(ctx, tasks.NewListDetailLoader(r.backend, r.deps()), id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(detail, cmd.Bool("pretty"))
	}

	text, err := formatter.ExportToText(&formatter.Export{List: detail})
	if err != nil {
		return err
	}
	_, err = r.output.Write(text)
	return err
}

// ListsCreate creates a list owned by the signed-in user.
func (r *Runner) ListsCreate(ctx context.Context, cmd *cli.Command) error {
	me, err := r.currentUser()
	if err != nil {
		return err
	}

	created, err := tasks.NewListsController(r.backend, me.ID, r.deps()).Create(ctx, models.PlaylistInput{
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		Public:      cmd.Bool("public"),
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created list #%d: %s (%s)\n", created.ID, created.Name, shared.VisibilityString(created.Public))
}

// ListsUpdate changes a list's name, description or visibility. Flags that are not set keep their current value.
func (r *Runner) ListsUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := r.intArg(cmd, "list-id")
	if err != nil {
		return err
	}
	me, err := r.currentUser()
	if err != nil {
		return err
	}

	current, err := r.backend.GetList(ctx, id)
	if err != nil {
		return err
	}

	in := models.PlaylistInput{Name: current.Name, Description: current.Description, Public: current.Public}
	if cmd.IsSet("name") {
		in.Name = cmd.String("name")
	}
	if cmd.IsSet("description") {
		in.Description = cmd.String("description")
	}
	if cmd.IsSet("public") {
		in.Public = cmd.Bool("public")
	}

	lists := tasks.NewListsController(r.backend, me.ID, r.deps())
	lists.Set([]models.Playlist{current.Playlist})
	updated, err := lists.Update(ctx, id, in)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated list #%d: %s (%s)\n", updated.ID, updated.Name, shared.VisibilityString(updated.Public))
}

// ListsDelete deletes a list after confirmation. --yes skips the prompt.
func (r *Runner) ListsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := r.intArg(cmd, "list-id")
	if err != nil {
		return err
	}
	me, err := r.currentUser()
	if err != nil {
		return err
	}

	lists := tasks.NewListsController(r.backend, me.ID, r.deps())
	if _, err := lists.Load(ctx); err != nil {
		r.logger.Warn("could not load lists", "error", err)
	}
	lists.NavigateAway = func(listID int) {
		r.logger.Debug("list deleted", "id", listID)
	}

	err = lists.Delete(ctx, id, func(p models.Playlist) bool {
		if cmd.Bool("yes") {
			return true
		}
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("#%d", p.ID)
		}
		return r.confirm(fmt.Sprintf("Delete list %q? This cannot be undone.", name))
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Deleted list #%d\n", id)
}

// ListsAdd adds a track to a list.
func (r *Runner) ListsAdd(ctx context.Context, cmd *cli.Command) error {
	listID, trackID, err := r.membershipArgs(cmd)
	if err != nil {
		return err
	}

	list := tasks.NewListDetailController(r.backend, listID, r.deps())
	if _, err := list.Load(ctx); err != nil {
		return err
	}

	track, err := r.backend.GetTrack(ctx, trackID)
	if err != nil {
		return err
	}

	detail, err := list.AddTrack(ctx, track)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Added %s to %s (%d tracks)\n", track.Title, detail.Name, detail.SongCount)
}

// ListsRemove removes a track from a list.
func (r *Runner) ListsRemove(ctx context.Context, cmd *cli.Command) error {
	listID, trackID, err := r.membershipArgs(cmd)
	if err != nil {
		return err
	}

	list := tasks.NewListDetailController(r.backend, listID, r.deps())
	if _, err := list.Load(ctx); err != nil {
		return err
	}

	detail, err := list.RemoveTrack(ctx, trackID)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Removed track #%d from %s (%d tracks)\n", trackID, detail.Name, detail.SongCount)
}

func (r *Runner) membershipArgs(cmd *cli.Command) (listID, trackID int, err error) {
	if _, err = r.currentUser(); err != nil {
		return 0, 0, err
	}
	if listID, err = r.intArg(cmd, "list-id"); err != nil {
		return 0, 0, err
	}
	if trackID, err = r.intArg(cmd, "track-id"); err != nil {
		return 0, 0, err
	}
	return listID, trackID, nil
}

// ListsExport writes a list to disk in the chosen format.
func (r *Runner) ListsExport(ctx context.Context, cmd *cli.Command) error {
	id, err := r.intArg(cmd, "list-id")
	if err != nil {
		return err
	}
	format := strings.ToLower(cmd.String("format"))
	output := cmd.String("output")

	detail, err := load(ctx, tasks.NewListDetailLoader(r.backend, r.deps()), id)
	if err != nil {
		return err
	}

	export := &formatter.Export{List: detail}
	if cmd.Bool("ratings") {
		export.Ratings = r.fetchRatings(ctx, detail.Items)
	}

	r.logger.Info("exporting list", "id", id, "format", format, "tracks", len(detail.Items))

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks\n", len(detail.Items))
		r.writePlain("  %s\n  %s\n", result.TracksFile, result.MetadataFile)
	case "markdown", "md":
		result, err := formatter.WriteMarkdownExport(ctx, r.httpClient, export, output)
		if err != nil {
			return err
		}
		for _, w := range result.Warnings {
			r.logger.Warn(w)
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(detail.Items), result.Directory)
		for _, f := range result.Files {
			r.writePlain("  %s\n", f)
		}
	case "txt", "text":
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(detail.Items), path)
	case "json":
		data, err := formatter.ExportToJSON(export)
		if err != nil {
			return err
		}
		if output == "" {
			_, err = r.output.Write(append(data, '\n'))
			return err
		}
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("failed to write JSON file: %w", err)
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(detail.Items), output)
	default:
		return fmt.Errorf("%w: unknown format %q (use csv, markdown, json or txt)", shared.ErrInvalidArgument, format)
	}
	return nil
}

// fetchRatings loads every item's aggregate with bounded concurrency. Failed lookups are left out.
func (r *Runner) fetchRatings(ctx context.Context, items []models.PlaylistItem) map[int]models.RatingAggregate {
	var mu sync.Mutex
	ratings := make(map[int]models.RatingAggregate, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.config.Catalog.RatingConcurrency))
	for _, it := range items {
		g.Go(func() error {
			agg, err := r.backend.GetRating(gctx, it.TrackID)
			if err != nil {
				r.logger.Warn("rating unavailable", "track", it.TrackID, "error", err)
				return nil
			}
			mu.Lock()
			ratings[it.TrackID] = agg
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return ratings
}
