package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/hitnote/internal/shared"
)

// Order is a catalog sort order accepted by GET /musicas.
type Order string

const (
	OrderIDAsc    Order = "id_asc"
	OrderIDDesc   Order = "id_desc"
	OrderNameAsc  Order = "nome_asc"
	OrderNameDesc Order = "nome_desc"
)

// Orders lists every supported [Order].
var Orders = []Order{OrderIDAsc, OrderIDDesc, OrderNameAsc, OrderNameDesc}

// ParseOrder validates s as an [Order]. The empty string selects [OrderIDAsc].
func ParseOrder(s string) (Order, error) {
	if s == "" {
		return OrderIDAsc, nil
	}
	for _, o := range Orders {
		if string(o) == s {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: unknown order %q", shared.ErrInvalidArgument, s)
}

// Track is a catalog entry.
type Track struct {
	ID          int    `json:"id"`
	Title       string `json:"nome"`
	Artist      string `json:"artista"`
	Album       string `json:"album"`
	ReleaseDate string `json:"data_lancamento"`
	CoverURL    string `json:"url_imagem"`
	UserRating  *int   `json:"user_rating,omitempty"` // the viewer's own rating, when known
}

// TrackInput is the body for creating a track.
type TrackInput struct {
	Title       string `json:"nome"`
	Artist      string `json:"artista"`
	Album       string `json:"album"`
	ReleaseDate string `json:"data_lancamento"`
	CoverURL    string `json:"url_imagem"`
}

// Validate requires a title and an artist.
func (t TrackInput) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: track name is required", shared.ErrValidation)
	}
	if strings.TrimSpace(t.Artist) == "" {
		return fmt.Errorf("%w: artist is required", shared.ErrValidation)
	}
	return nil
}

// TrackPage is one page of GET /musicas.
type TrackPage struct {
	Items    []Track `json:"items"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// MaxPage returns ceil(total/pageSize), never less than 1.
func (p TrackPage) MaxPage(pageSize int) int {
	if pageSize <= 0 {
		return 1
	}
	return max(1, shared.CeilDiv(p.Total, pageSize))
}

// ExternalTrack is a hit from the third-party catalog lookup, importable through create-track.
type ExternalTrack struct {
	ExternalID  int    `json:"genius_id"`
	Title       string `json:"nome"`
	Artist      string `json:"artista"`
	Album       string `json:"album"`
	ReleaseDate string `json:"data_lancamento"`
	CoverURL    string `json:"url_imagem_capa"`
}

// ToInput converts the hit into a create-track body.
func (e ExternalTrack) ToInput() TrackInput {
	return TrackInput{
		Title:       e.Title,
		Artist:      e.Artist,
		Album:       e.Album,
		ReleaseDate: e.ReleaseDate,
		CoverURL:    e.CoverURL,
	}
}
