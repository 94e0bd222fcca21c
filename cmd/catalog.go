package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/shared"
	"github.com/desertthunder/hitnote/internal/tasks"
)

type ratedTrack struct {
	models.Track
	Rating models.RatingAggregate `json:"rating"`
}

type catalogPage struct {
	Query    string       `json:"query,omitempty"`
	Order    models.Order `json:"order"`
	Page     int          `json:"page"`
	MaxPage  int          `json:"max_page"`
	PageSize int          `json:"page_size"`
	Total    int          `json:"total"`
	Items    []ratedTrack `json:"items"`
}

type trackDetail struct {
	Track   models.Track           `json:"track"`
	Rating  models.RatingAggregate `json:"rating"`
	Liked   bool                   `json:"liked"`
	Reviews []models.Review        `json:"reviews"`
}

// CatalogBrowse fetches one catalog page and the rating of every track on it.
func (r *Runner) CatalogBrowse(ctx context.Context, cmd *cli.Command) error {
	order, err := models.ParseOrder(cmd.String("order"))
	if err != nil {
		return err
	}

	opts := tasks.CatalogOptionsFromConfig(r.config.Catalog)
	opts.Query = cmd.String("query")
	opts.Page = int(cmd.Int("page"))
	opts.Order = order
	if cmd.IsSet("page-size") {
		if cmd.Int("page-size") <= 0 {
			return fmt.Errorf("%w: page size must be positive", shared.ErrInvalidArgument)
		}
		opts.PageSize = int(cmd.Int("page-size"))
	}

	catalog := tasks.NewCatalogController(r.backend, opts, r.deps())
	defer catalog.Close()

	catalog.Start(ctx)
	snap, err := catalog.Wait(ctx)
	if err != nil {
		return err
	}
	if snap.Result.Status == tasks.Failure {
		return snap.Result.Err
	}

	page := catalogPage{
		Query:    snap.Query,
		Order:    snap.Order,
		Page:     snap.Page,
		MaxPage:  snap.MaxPage(),
		PageSize: snap.PageSize,
		Total:    snap.Result.Data.Total,
		Items:    make([]ratedTrack, 0, len(snap.Result.Data.Items)),
	}
	for _, t := range snap.Result.Data.Items {
		page.Items = append(page.Items, ratedTrack{Track: t, Rating: snap.Rating(t.ID)})
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	header := fmt.Sprintf("Catalog · page %d/%d · %d tracks", page.Page, page.MaxPage, page.Total)
	if page.Query != "" {
		header += fmt.Sprintf(" · %q", page.Query)
	}
	r.writePlainHeader(header)

	if len(page.Items) == 0 {
		return r.writePlain("No tracks found\n")
	}
	for _, it := range page.Items {
		r.writePlain("%5d  %-32s %-24s %4s (%d)\n",
			it.ID, truncate(it.Title, 32), truncate(it.Artist, 24), it.Rating.MeanString(), it.Rating.Count)
	}
	return nil
}

// CatalogShow prints a track with its rating, the viewer's like and its reviews.
func (r *Runner) CatalogShow(ctx context.Context, cmd *cli.Command) error {
	id, err := r.intArg(cmd, "id")
	if err != nil {
		return err
	}

	track, err := r.backend.GetTrack(ctx, id)
	if err != nil {
		return err
	}

	reviews := tasks.NewReviewController(r.backend, id, r.deps())
	state, err := reviews.Load(ctx)
	if err != nil {
		return err
	}

	detail := trackDetail{Track: track, Rating: state.Rating, Reviews: state.Reviews}
	if r.session.Authenticated() {
		detail.Liked = tasks.NewLikeController(r.backend, id, r.deps()).Refresh(ctx)
	}

	if cmd.Bool("json") {
		return r.writeJSON(detail, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s · %s", track.Title, track.Artist))
	if track.Album != "" {
		r.writePlain("Album:    %s\n", track.Album)
	}
	if track.ReleaseDate != "" {
		r.writePlain("Released: %s\n", track.ReleaseDate)
	}
	r.writePlain("Rating:   %s (%d reviews)\n", detail.Rating.MeanString(), detail.Rating.Count)
	if track.UserRating != nil {
		r.writePlain("You:      %d\n", *track.UserRating)
	}
	if r.session.Authenticated() {
		r.writePlain("Liked:    %s\n", yesNo(detail.Liked))
	}

	r.writePlainln("Reviews")
	r.writeReviews(detail.Reviews)
	return nil
}

// CatalogCreate adds a track to the catalog.
func (r *Runner) CatalogCreate(ctx context.Context, cmd *cli.Command) error {
	in := models.TrackInput{
		Title:       cmd.String("title"),
		Artist:      cmd.String("artist"),
		Album:       cmd.String("album"),
		ReleaseDate: cmd.String("release-date"),
		CoverURL:    cmd.String("cover"),
	}
	if err := in.Validate(); err != nil {
		return err
	}

	track, err := r.backend.CreateTrack(ctx, in)
	if err != nil {
		return err
	}

	r.logger.Info("track created", "id", track.ID)
	return r.writePlain("✓ Created track #%d: %s · %s\n", track.ID, track.Title, track.Artist)
}

// CatalogImport searches the external catalog. With --pick it imports that hit.
func (r *Runner) CatalogImport(ctx context.Context, cmd *cli.Command) error {
	importer := tasks.NewImportController(r.backend, r.deps())
	defer importer.Close()

	hits, err := importer.Search(ctx, cmd.StringArg("query"))
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		return r.writePlain("No external matches\n")
	}

	if !cmd.IsSet("pick") {
		for i, h := range hits {
			r.writePlain("%3d. %s · %s", i+1, h.Title, h.Artist)
			if h.Album != "" {
				r.writePlain(" (%s)", h.Album)
			}
			r.writePlain("\n")
		}
		return r.writePlain("\nRe-run with --pick N to import a hit.\n")
	}

	pick := int(cmd.Int("pick"))
	if pick < 1 || pick > len(hits) {
		return fmt.Errorf("%w: pick must be between 1 and %d", shared.ErrInvalidArgument, len(hits))
	}

	track, err := importer.Import(ctx, hits[pick-1])
	if err != nil {
		return err
	}
	return r.writePlain("✓ Imported track #%d: %s · %s\n", track.ID, track.Title, track.Artist)
}

func (r *Runner) writeReviews(reviews []models.Review) {
	if len(reviews) == 0 {
		r.writePlain("No reviews yet\n")
		return
	}
	for _, rv := range reviews {
		r.writePlain("%s  %s", stars(rv.Rating), rv.Author)
		if rv.Comment != "" {
			r.writePlain(": %s", rv.Comment)
		}
		r.writePlain("\n")
	}
}

func stars(rating int) string {
	rating = min(max(rating, 0), models.MaxRating)
	out := make([]rune, 0, models.MaxRating)
	for i := range models.MaxRating {
		if i < rating {
			out = append(out, '★')
		} else {
			out = append(out, '☆')
		}
	}
	return string(out)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
