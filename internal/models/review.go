package models

import (
	"fmt"

	"github.com/desertthunder/hitnote/internal/shared"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one user's rating of a track.
type Review struct {
	ID        int    `json:"id"`
	TrackName string `json:"musica"`
	Rating    int    `json:"nota"`
	Comment   string `json:"comentario"`
	Author    string `json:"autor"`
	AuthorID  int    `json:"autor_id"`
}

// ReviewInput is the body for posting a review. The comment is optional.
type ReviewInput struct {
	Rating  int    `json:"nota"`
	Comment string `json:"comentario"`
}

// Validate requires a rating between [MinRating] and [MaxRating].
func (r ReviewInput) Validate() error {
	if r.Rating < MinRating || r.Rating > MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", shared.ErrValidation, MinRating, MaxRating)
	}
	return nil
}

// RatingAggregate is the mean rating and review count of a track. Mean is nil when there are no reviews.
type RatingAggregate struct {
	TrackID int      `json:"musica_id"`
	Mean    *float64 `json:"media"`
	Count   int      `json:"qtde"`
}

// Unrated is the placeholder shown when a track has no aggregate, or its aggregate could not be loaded.
func Unrated(trackID int) RatingAggregate {
	return RatingAggregate{TrackID: trackID}
}

// HasRating reports whether a mean is available.
func (a RatingAggregate) HasRating() bool {
	return a.Mean != nil && a.Count > 0
}

// WithRating returns the local estimate after one more rating:
//
//	new_mean = (old_mean*old_count + rating) / (old_count+1)
//	new_count = old_count + 1
//
// The estimate stands in until the next authoritative fetch replaces it.
func (a RatingAggregate) WithRating(rating int) RatingAggregate {
	var sum float64
	if a.Mean != nil {
		sum = *a.Mean * float64(a.Count)
	}

	count := a.Count + 1
	mean := (sum + float64(rating)) / float64(count)
	return RatingAggregate{TrackID: a.TrackID, Mean: &mean, Count: count}
}

// MeanString formats the mean with one decimal, or "-" when unrated.
func (a RatingAggregate) MeanString() string {
	if !a.HasRating() {
		return "-"
	}
	return fmt.Sprintf("%.1f", *a.Mean)
}
