// Package auth owns the single stored OAuth credential pair for the
// calendar owner: the authorization-code exchange, staleness decisions, and
// refresh. Every component that talks to the calendar provider obtains its
// credential through Manager.Credential — nothing else reads or writes the
// stored pair.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"calbot/internal/models"
	"calbot/internal/store"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
	"google.golang.org/api/calendar/v3"
)

// credentialKey is the fixed store key the single credential lives under.
const credentialKey = "google_credential"

// expiryMargin is the window before the stated expiry during which the
// token is proactively refreshed rather than used until failure.
const expiryMargin = 60 * time.Second

// ErrNotAuthenticated means no usable credential exists: either none was
// ever stored, or the stored one expired and could not be refreshed. The
// user should be shown the authorization link, not an error trace.
var ErrNotAuthenticated = errors.New("not authenticated with google calendar")

// Manager is the token lifecycle manager.
type Manager struct {
	conf   *oauth2.Config
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time

	refresh singleflight.Group
}

// NewManager builds a Manager for the given OAuth client. redirectURL must
// match the /oauth/callback route this service exposes.
func NewManager(logger *slog.Logger, st *store.Store, clientID, clientSecret, redirectURL string) *Manager {
	return &Manager{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{calendar.CalendarScope},
			Endpoint:     google.Endpoint,
		},
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// AuthURL returns the provider consent URL. Offline access with consent
// forced guarantees a refresh_token on first connect.
func (m *Manager) AuthURL() string {
	state := uuid.New().String()
	return m.conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for a credential pair and persists
// it.
func (m *Manager) Exchange(ctx context.Context, code string) error {
	token, err := m.conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}

	cred := &models.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry.Unix(),
	}
	if err := m.save(cred); err != nil {
		return err
	}

	m.logger.Info("Stored new credential from authorization code exchange.")
	return nil
}

// Credential returns a credential whose access token is valid for at least
// the expiry margin, refreshing and persisting first when needed. Returns
// ErrNotAuthenticated when no credential is stored or the refresh cannot
// produce a valid token.
func (m *Manager) Credential(ctx context.Context) (*models.Credential, error) {
	cred, err := m.load()
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrNotAuthenticated
	}

	if m.now().Add(expiryMargin).Unix() < cred.ExpiresAt {
		return cred, nil
	}

	// Near expiry. Concurrent units within this process share one refresh.
	v, err, _ := m.refresh.Do(credentialKey, func() (interface{}, error) {
		return m.refreshCredential(ctx, cred)
	})
	if err != nil {
		m.logger.Error("Credential refresh failed", "error", err)
		return nil, fmt.Errorf("credential refresh failed: %w", err)
	}
	return v.(*models.Credential), nil
}

// Authenticated reports whether a valid (or refreshable) credential exists.
func (m *Manager) Authenticated(ctx context.Context) bool {
	_, err := m.Credential(ctx)
	return err == nil
}

// refreshCredential exchanges the refresh token for a new access token and
// persists the updated pair. The provider may omit refresh_token on
// renewal; the previous value is always carried forward so a partial
// response never strands the user.
func (m *Manager) refreshCredential(ctx context.Context, cred *models.Credential) (*models.Credential, error) {
	if cred.RefreshToken == "" {
		return nil, ErrNotAuthenticated
	}

	src := m.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})
	token, err := src.Token()
	if err != nil {
		// The stored pair is left untouched: a transient provider outage
		// must not lock the user out.
		return nil, err
	}

	updated := &models.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry.Unix(),
	}
	if updated.RefreshToken == "" {
		updated.RefreshToken = cred.RefreshToken
	}

	if err := m.save(updated); err != nil {
		return nil, err
	}

	m.logger.Info("Refreshed access token.", "expiresAt", time.Unix(updated.ExpiresAt, 0))
	return updated, nil
}

func (m *Manager) load() (*models.Credential, error) {
	raw, ok, err := m.store.Get(credentialKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	if !ok {
		return nil, nil
	}
	cred := &models.Credential{}
	if err := json.Unmarshal(raw, cred); err != nil {
		return nil, fmt.Errorf("failed to decode stored credential: %w", err)
	}
	return cred, nil
}

func (m *Manager) save(cred *models.Credential) error {
	raw, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	if err := m.store.Put(credentialKey, raw); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	return nil
}
