package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/events"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/services"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// AuthStore owns the signed-in identity and its token.
type AuthStore struct {
	client   client.Client
	sessions services.SessionStore
	bus      *events.Bus
	log      logging.Logger
	now      func() time.Time

	mu     sync.RWMutex
	user   *models.User
	token  string
	status Status
	err    error
}

func NewAuthStore(c client.Client, sessions services.SessionStore, bus *events.Bus, log logging.Logger) *AuthStore {
	return &AuthStore{
		client:   c,
		sessions: sessions,
		bus:      bus,
		log:      log.With("store", "auth"),
		now:      time.Now,
	}
}

// Register creates an account. The server does not sign the user in, so no
// token is issued; the returned user is kept for display unless another
// account is signed in.
func (s *AuthStore) Register(ctx context.Context, creds models.Credentials) (*models.User, error) {
	if err := models.NewValidationError(models.ValidateCredentials(creds)); err != nil {
		return nil, s.fail(ctx, "register", err)
	}

	s.begin()

	u, err := s.client.Register(ctx, creds)
	if err != nil {
		var se *client.ServerError
		if errors.As(err, &se) && se.IsClientError() {
			err = models.NewValidationError(map[string]string{"form": se.Message})
		}
		return nil, s.fail(ctx, "register", err)
	}

	s.mu.Lock()
	if s.token == "" {
		s.user = cloneUser(u)
	}
	s.status = StatusSuccess
	s.mu.Unlock()

	s.log.Info(ctx, "account registered", "email", u.Email)
	return cloneUser(u), nil
}

// Login exchanges credentials for a token, persists the session and
// publishes events.LoggedIn. A rejected login leaves the previous state in
// place and returns an error wrapping client.ErrUnauthorized.
func (s *AuthStore) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	if err := models.NewValidationError(models.ValidateCredentials(creds)); err != nil {
		return nil, s.fail(ctx, "login", err)
	}

	s.begin()

	session, err := s.client.Login(ctx, creds)
	if err != nil {
		if credentialsRejected(err) && !errors.Is(err, client.ErrUnauthorized) {
			err = fmt.Errorf("%w: %w", client.ErrUnauthorized, err)
		}
		return nil, s.fail(ctx, "login", err)
	}

	if err := s.sessions.Save(ctx, *session); err != nil {
		s.log.Warn(ctx, "session not persisted", "error", err)
	}
	s.client.SetToken(session.Token)

	s.mu.Lock()
	s.user = cloneUser(&session.User)
	s.token = session.Token
	s.status = StatusSuccess
	s.mu.Unlock()

	s.log.Info(ctx, "logged in", "email", session.User.Email)
	s.publish(ctx, events.Event{Kind: events.LoggedIn, Payload: *session})

	out := *session
	return &out, nil
}

// Logout forgets the session locally; the server is not contacted.
// events.LoggedOut is published even when the persisted copy could not be
// removed, and that failure is returned.
func (s *AuthStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.status = StatusIdle
	s.err = nil
	s.mu.Unlock()

	s.client.SetToken("")

	var clearErr error
	if err := s.sessions.Clear(ctx); err != nil {
		clearErr = fmt.Errorf("clear persisted session: %w", err)
		s.log.Error(ctx, "session not cleared", "error", err)
	}

	s.log.Info(ctx, "logged out")
	s.publish(ctx, events.Event{Kind: events.LoggedOut})

	return clearErr
}

// Restore reinstates the persisted session, if any. A JWT whose exp claim
// has passed is deleted instead. It reports whether the session is still
// active once events.LoggedIn has been handled.
func (s *AuthStore) Restore(ctx context.Context) (bool, error) {
	session, err := s.sessions.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("restore session: %w", err)
	}
	if session == nil {
		return false, nil
	}

	if tokenExpired(session.Token, s.now()) {
		s.log.Info(ctx, "persisted token expired, discarding")
		if err := s.sessions.Clear(ctx); err != nil {
			return false, fmt.Errorf("discard expired session: %w", err)
		}
		return false, nil
	}

	s.client.SetToken(session.Token)

	s.mu.Lock()
	if session.User.ID != "" || session.User.Email != "" {
		s.user = cloneUser(&session.User)
	}
	s.token = session.Token
	s.status = StatusSuccess
	s.err = nil
	s.mu.Unlock()

	s.log.Debug(ctx, "session restored")
	s.publish(ctx, events.Event{Kind: events.LoggedIn, Payload: *session})

	// a handler may have ended the session when the server refused the token
	return s.IsAuthenticated(), nil
}

// User returns a copy of the signed-in user, or nil.
func (s *AuthStore) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(s.user)
}

func (s *AuthStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *AuthStore) IsAuthenticated() bool {
	return s.Token() != ""
}

func (s *AuthStore) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Err is the error of the last failed operation; it is reset when the next
// one starts.
func (s *AuthStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *AuthStore) begin() {
	s.mu.Lock()
	s.status = StatusLoading
	s.err = nil
	s.mu.Unlock()
}

func (s *AuthStore) fail(ctx context.Context, op string, err error) error {
	s.mu.Lock()
	s.status = StatusError
	s.err = err
	s.mu.Unlock()

	s.log.Warn(ctx, op+" failed", "error", err)
	return err
}

func (s *AuthStore) publish(ctx context.Context, e events.Event) {
	if err := s.bus.Publish(ctx, e); err != nil {
		s.log.Warn(ctx, "event handlers failed", "event", e.Kind, "error", err)
	}
}

// credentialsRejected reports whether a login failure means the server did
// not accept the credentials, as opposed to being unreachable or broken.
func credentialsRejected(err error) bool {
	if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrNotFound) {
		return true
	}
	var se *client.ServerError
	return errors.As(err, &se) && se.StatusCode == http.StatusBadRequest
}

// tokenExpired reads the exp claim without verifying the signature; the
// server remains the judge of validity. Tokens that are not JWTs, or carry
// no exp, never expire here.
func tokenExpired(token string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(now)
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
