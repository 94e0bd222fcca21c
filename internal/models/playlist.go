package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/desertthunder/hitnote/internal/shared"
)

// Playlist is a user's list as returned by collection endpoints (no member items).
type Playlist struct {
	ID          int    `json:"id"`
	OwnerID     int    `json:"usuario_id"`
	Name        string `json:"nome"`
	Description string `json:"descricao"`
	Public      bool   `json:"publica"`
	CoverURL    string `json:"url_capa,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	SongCount   int    `json:"song_count"`
}

// PlaylistItem is a member track with the time it was added.
type PlaylistItem struct {
	TrackID  int    `json:"id"`
	Title    string `json:"nome"`
	Artist   string `json:"artista"`
	Album    string `json:"album"`
	CoverURL string `json:"url_imagem"`
	AddedAt  string `json:"adicionado_em"`
}

// PlaylistDetail is a list with its ordered members.
//
// [PlaylistDetail.AddItem] and [PlaylistDetail.RemoveItem] are the only membership mutators and keep
// SongCount equal to len(Items).
type PlaylistDetail struct {
	Playlist
	Items []PlaylistItem `json:"items"`
}

// Normalize aligns SongCount with the loaded items.
func (d *PlaylistDetail) Normalize() {
	d.SongCount = len(d.Items)
}

// Contains reports whether trackID is a member.
func (d *PlaylistDetail) Contains(trackID int) bool {
	return lo.ContainsBy(d.Items, func(it PlaylistItem) bool { return it.TrackID == trackID })
}

// AddItem appends track as a member added at addedAt. It returns false if the track is already a member.
func (d *PlaylistDetail) AddItem(track Track, addedAt time.Time) bool {
	if d.Contains(track.ID) {
		return false
	}

	d.Items = append(d.Items, PlaylistItem{
		TrackID:  track.ID,
		Title:    track.Title,
		Artist:   track.Artist,
		Album:    track.Album,
		CoverURL: track.CoverURL,
		AddedAt:  addedAt.UTC().Format(time.RFC3339),
	})
	d.Normalize()
	return true
}

// RemoveItem drops the member with trackID. It returns false if no such member exists.
func (d *PlaylistDetail) RemoveItem(trackID int) bool {
	kept := lo.Reject(d.Items, func(it PlaylistItem, _ int) bool { return it.TrackID == trackID })
	if len(kept) == len(d.Items) {
		return false
	}

	d.Items = kept
	d.Normalize()
	return true
}

// Tracks projects the members as catalog tracks.
func (d *PlaylistDetail) Tracks() []Track {
	return lo.Map(d.Items, func(it PlaylistItem, _ int) Track {
		return Track{ID: it.TrackID, Title: it.Title, Artist: it.Artist, Album: it.Album, CoverURL: it.CoverURL}
	})
}

// PlaylistInput is the body for creating or updating a list.
type PlaylistInput struct {
	Name        string `json:"nome"`
	Description string `json:"descricao"`
	Public      bool   `json:"publica"`
}

// Validate requires a non-blank name.
func (in PlaylistInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: list name is required", shared.ErrValidation)
	}
	return nil
}

// ActivityKind enumerates feed entry kinds.
type ActivityKind string

const (
	ActivityReview     ActivityKind = "review"
	ActivityListCreate ActivityKind = "list_create"
)

// ActivityItem is one entry of a user's feed.
type ActivityItem struct {
	ID        string       `json:"id"`
	Kind      ActivityKind `json:"tipo"`
	Action    string       `json:"acao"`
	TargetID  int          `json:"target_id"`
	Rating    *int         `json:"nota,omitempty"`
	Comment   *string      `json:"comentario,omitempty"`
	CreatedAt *string      `json:"data_criacao,omitempty"`
}
