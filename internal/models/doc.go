// Package models defines the canonical client-side records for the HitNote backend.
//
// Every view projects these records into its own shape at the rendering boundary; fetch and
// normalization logic is never duplicated per view.
//
// Records:
//   - [Track] and [TrackPage] : catalog entries and a page of them
//   - [RatingAggregate] : per-track mean and count, with the running-mean estimate [RatingAggregate.WithRating]
//   - [Review] : a rating with an optional comment
//   - [UserProfile], [PublicProfile], [ProfileSummary] : the three projections of a user
//   - [Playlist] : a user's list of tracks; membership only changes through [Playlist.AddItem] and [Playlist.RemoveItem]
//   - [ActivityItem] : a feed entry
//
// JSON tags follow the backend's field names.
package models
