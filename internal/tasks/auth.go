package tasks

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/services"
)

// SessionWriter records and clears the authenticated identity. [session.Store] implements it.
type SessionWriter interface {
	Login(token string, profile models.ProfileSummary) error
	Logout() error
}

// AuthController signs users in and out.
type AuthController struct {
	backend services.Accounts
	session SessionWriter
	logger  *log.Logger
}

func NewAuthController(backend services.Accounts, session SessionWriter, deps Deps) *AuthController {
	return &AuthController{backend: backend, session: session, logger: deps.logger("auth")}
}

// Login exchanges credentials for a token and stores it with the returned identity.
func (c *AuthController) Login(ctx context.Context, creds models.Credentials) (models.ProfileSummary, error) {
	if err := creds.Validate(); err != nil {
		return models.ProfileSummary{}, err
	}

	resp, err := c.backend.Login(ctx, creds)
	if err != nil {
		return models.ProfileSummary{}, err
	}
	if err := c.session.Login(resp.AccessToken, resp.User); err != nil {
		return models.ProfileSummary{}, err
	}

	c.logger.Info("signed in", "user", resp.User.Username)
	return resp.User, nil
}

// Register creates an account. It does not sign in.
func (c *AuthController) Register(ctx context.Context, reg models.Registration) (models.ProfileSummary, error) {
	if err := reg.Validate(); err != nil {
		return models.ProfileSummary{}, err
	}
	return c.backend.Register(ctx, reg)
}

func (c *AuthController) Logout() error {
	return c.session.Logout()
}
