package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/tasks"
)

var (
	_ list.Item = trackItem{}
	_ list.Item = reviewItem{}
)

// trackItem wraps [models.Track] and its rating to implement [list.Item].
type trackItem struct {
	track  models.Track
	rating models.RatingAggregate
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	if i.rating.HasRating() {
		return fmt.Sprintf("%s • ★ %s (%d)", desc, i.rating.MeanString(), i.rating.Count)
	}
	return fmt.Sprintf("%s • unrated", desc)
}

// trackItems builds the catalog page's list items from a snapshot.
func trackItems(snap tasks.CatalogSnapshot) []list.Item {
	items := make([]list.Item, len(snap.Result.Data.Items))
	for i, t := range snap.Result.Data.Items {
		items[i] = trackItem{track: t, rating: snap.Rating(t.ID)}
	}
	return items
}

// reviewItem wraps [models.Review] to implement [list.Item].
type reviewItem struct {
	review models.Review
}

func (i reviewItem) FilterValue() string { return i.review.Author }
func (i reviewItem) Title() string {
	return fmt.Sprintf("%s  %s", stars(i.review.Rating), i.review.Author)
}
func (i reviewItem) Description() string {
	if i.review.Comment == "" {
		return "(no comment)"
	}
	return i.review.Comment
}

func reviewItems(reviews []models.Review) []list.Item {
	items := make([]list.Item, len(reviews))
	for i, r := range reviews {
		items[i] = reviewItem{review: r}
	}
	return items
}

func stars(rating int) string {
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
