package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/hitnote/internal/shared"
)

// Stats are counters derived server-side for a profile.
type Stats struct {
	Reviews    int     `json:"total_reviews"`
	MeanRating float64 `json:"media_reviews"`
	Followers  int     `json:"followers"`
	Following  int     `json:"following"`
	Likes      int     `json:"likes"`
}

// ProfileSummary is the identity stored in the session.
type ProfileSummary struct {
	ID       int    `json:"id"`
	Name     string `json:"nome"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserProfile is the owner's view of their own profile.
type UserProfile struct {
	ID           int    `json:"id"`
	Name         string `json:"nome"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Bio          string `json:"biografia"`
	AvatarURL    string `json:"url_foto"`
	CoverURL     string `json:"url_capa"`
	Location     string `json:"localizacao"`
	RegisteredAt string `json:"data_cadastro"`
	Stats        Stats  `json:"stats"`
}

// Editable returns the profile's editable fields.
func (p UserProfile) Editable() ProfileUpdate {
	return ProfileUpdate{
		Name:      p.Name,
		Bio:       p.Bio,
		AvatarURL: p.AvatarURL,
		CoverURL:  p.CoverURL,
		Location:  p.Location,
	}
}

// PublicProfile is any user's profile as seen by others. IsFollowing is only set for authenticated viewers.
type PublicProfile struct {
	ID          int    `json:"id"`
	Name        string `json:"nome"`
	Username    string `json:"username"`
	AvatarURL   string `json:"url_foto"`
	Bio         string `json:"biografia"`
	CoverURL    string `json:"url_capa"`
	Location    string `json:"localizacao"`
	IsFollowing *bool  `json:"is_following,omitempty"`
	Stats       Stats  `json:"stats"`
}

// Following reports the viewer's follow edge, false when unknown.
func (p PublicProfile) Following() bool {
	return p.IsFollowing != nil && *p.IsFollowing
}

// ProfileUpdate is the complete editable field set, submitted as one update.
type ProfileUpdate struct {
	Name      string `json:"nome"`
	Bio       string `json:"biografia"`
	AvatarURL string `json:"url_foto"`
	CoverURL  string `json:"url_capa"`
	Location  string `json:"localizacao"`
}

// Validate requires a display name.
func (u ProfileUpdate) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	return nil
}

// Credentials is the login body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

// Validate requires both fields.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return fmt.Errorf("%w: email and password are required", shared.ErrValidation)
	}
	return nil
}

// Registration is the sign-up body.
type Registration struct {
	Name     string `json:"nome"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"senha"`
}

// Validate requires name, email and password.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	return Credentials{Email: r.Email, Password: r.Password}.Validate()
}

// AuthResponse is returned by POST /login.
type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	User        ProfileSummary `json:"usuario"`
}
