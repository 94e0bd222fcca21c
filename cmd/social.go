package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/shared"
	"github.com/desertthunder/hitnote/internal/tasks"
)

// load runs one fetch on l and returns its data, or the fetch error.
func load[K comparable, T any](ctx context.Context, l *tasks.Loader[K, T], key K) (T, error) {
	defer l.Close()

	l.Load(ctx, key)
	st, err := l.Wait(ctx)
	if err != nil {
		return st.Data, err
	}
	if st.Status == tasks.Failure {
		return st.Data, st.Err
	}
	return st.Data, nil
}

// userArg returns the user-id argument, or the signed-in user's id when it is omitted.
func (r *Runner) userArg(cmd *cli.Command) (id int, own bool, err error) {
	if strings.TrimSpace(cmd.StringArg("user-id")) == "" {
		me, err := r.currentUser()
		return me.ID, true, err
	}
	id, err = r.intArg(cmd, "user-id")
	return id, false, err
}

// ReviewsList prints a track's reviews, newest first.
func (r *Runner) ReviewsList(ctx context.Context, cmd *cli.Command) error {
	id, err := r.intArg(cmd, "track-id")
	if err != nil {
		return err
	}

	reviews, err := load(ctx, tasks.NewReviewsLoader(r.backend, r.deps()), id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(reviews, cmd.Bool("pretty"))
	}
	r.writeReviews(reviews)
	return nil
}

// ReviewsAdd submits a review and prints the updated rating.
func (r *Runner) ReviewsAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := r.intArg(cmd, "track-id")
	if err != nil {
		return err
	}

	reviews := tasks.NewReviewController(r.backend, id, r.deps())
	if _, err := reviews.Load(ctx); err != nil {
		return err
	}

	review, err := reviews.Submit(ctx, models.ReviewInput{
		Rating:  int(cmd.Int("rating")),
		Comment: cmd.String("comment"),
	})
	if err != nil {
		return err
	}

	agg := reviews.State().Rating
	r.writePlain("✓ Reviewed %s: %s\n", review.TrackName, stars(review.Rating))
	return r.writePlain("Rating is now %s (%d reviews)\n", agg.MeanString(), agg.Count)
}

// LikeStatus prints whether the signed-in user likes a track.
func (r *Runner) LikeStatus(ctx context.Context, cmd *cli.Command) error {
	id, err := r.intArg(cmd, "track-id")
	if err != nil {
		return err
	}
	if _, err := r.currentUser(); err != nil {
		return err
	}

	liked, err := load(ctx, tasks.NewLikeStatusLoader(r.backend, r.deps()), id)
	if err != nil {
		return err
	}
	return r.writePlain("Liked: %s\n", yesNo(liked))
}

// LikeToggle likes or unlikes a track.
func (r *Runner) LikeToggle(ctx context.Context, cmd *cli.Command) error {
	id, err := r.intArg(cmd, "track-id")
	if err != nil {
		return err
	}

	like := tasks.NewLikeController(r.backend, id, r.deps())
	if r.session.Authenticated() {
		like.Refresh(ctx)
	}

	liked, err := like.Toggle(ctx)
	if err != nil {
		return err
	}
	if liked {
		return r.writePlain("♥ Liked track #%d\n", id)
	}
	return r.writePlain("♡ Unliked track #%d\n", id)
}

// UsersShow prints a public profile.
func (r *Runner) UsersShow(ctx context.Context, cmd *cli.Command) error {
	id, err := r.intArg(cmd, "user-id")
	if err != nil {
		return err
	}

	profile, err := load(ctx, tasks.NewPublicProfileLoader(r.backend, r.deps()), id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s (@%s)", profile.Name, profile.Username))
	if profile.Bio != "" {
		r.writePlain("%s\n\n", profile.Bio)
	}
	if profile.Location != "" {
		r.writePlain("Location:  %s\n", profile.Location)
	}
	r.writeStats(profile.Stats)
	if profile.IsFollowing != nil {
		r.writePlain("Following: %s\n", yesNo(profile.Following()))
	}
	return nil
}

// UsersSearch finds users by name or username.
func (r *Runner) UsersSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	users, err := load(ctx, tasks.NewUserSearchLoader(r.backend, r.deps()), query)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(users, cmd.Bool("pretty"))
	}
	if len(users) == 0 {
		return r.writePlain("No users found\n")
	}
	for _, u := range users {
		r.writePlain("%5d  %-24s @%s\n", u.ID, truncate(u.Name, 24), u.Username)
	}
	return nil
}

// UsersFollow follows or unfollows a user.
func (r *Runner) UsersFollow(ctx context.Context, cmd *cli.Command) error {
	id, err := r.intArg(cmd, "user-id")
	if err != nil {
		return err
	}
	if _, err := r.currentUser(); err != nil {
		return err
	}

	follow := tasks.NewFollowController(r.backend, id, r.deps())
	profile, err := follow.Load(ctx)
	if err != nil {
		return err
	}

	state, err := follow.Toggle(ctx)
	if err != nil {
		return err
	}

	verb := "Unfollowed"
	if state.Following {
		verb = "Following"
	}
	return r.writePlain("✓ %s @%s (%d followers)\n", verb, profile.Username, state.Followers)
}

// UsersLikes prints a user's liked tracks. Without an id it prints the signed-in user's.
func (r *Runner) UsersLikes(ctx context.Context, cmd *cli.Command) error {
	id, own, err := r.userArg(cmd)
	if err != nil {
		return err
	}

	loader := tasks.NewUserLikesLoader(r.backend, r.deps())
	if own {
		loader = tasks.NewOwnLikesLoader(r.backend, r.deps())
	}
	tracks, err := load(ctx, loader, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}
	if len(tracks) == 0 {
		return r.writePlain("No liked tracks\n")
	}
	for _, t := range tracks {
		r.writePlain("%5d  %-32s %s\n", t.ID, truncate(t.Title, 32), t.Artist)
	}
	return nil
}

// UsersFeed prints a user's recent activity. Without an id it prints the signed-in user's.
func (r *Runner) UsersFeed(ctx context.Context, cmd *cli.Command) error {
	id, _, err := r.userArg(cmd)
	if err != nil {
		return err
	}

	feed, err := load(ctx, tasks.NewFeedLoader(r.backend, r.deps()), id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(feed, cmd.Bool("pretty"))
	}
	if len(feed) == 0 {
		return r.writePlain("No recent activity\n")
	}
	for _, it := range feed {
		r.writePlain("%s\n", describeActivity(it))
	}
	return nil
}

func describeActivity(it models.ActivityItem) string {
	var b strings.Builder
	if it.CreatedAt != nil {
		fmt.Fprintf(&b, "%s  ", *it.CreatedAt)
	}

	switch it.Kind {
	case models.ActivityReview:
		fmt.Fprintf(&b, "reviewed track #%d", it.TargetID)
		if it.Rating != nil {
			fmt.Fprintf(&b, " %s", stars(*it.Rating))
		}
		if it.Comment != nil && *it.Comment != "" {
			fmt.Fprintf(&b, ": %s", *it.Comment)
		}
	case models.ActivityListCreate:
		fmt.Fprintf(&b, "created list #%d", it.TargetID)
	default:
		fmt.Fprintf(&b, "%s #%d", it.Action, it.TargetID)
	}
	return b.String()
}

func (r *Runner) writeStats(s models.Stats) {
	r.writePlain("Reviews:   %d (mean %.1f)\n", s.Reviews, s.MeanRating)
	r.writePlain("Followers: %d\n", s.Followers)
	r.writePlain("Follows:   %d\n", s.Following)
	r.writePlain("Likes:     %d\n", s.Likes)
}
