package store

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/events"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

var goodCreds = models.Credentials{Email: "alice@example.org", Password: "secret1"}

func newAuth(t *testing.T) (*AuthStore, *fakeClient, *fakeSessions, *events.Bus) {
	t.Helper()
	fc := newFakeClient()
	fs := &fakeSessions{}
	bus := events.NewBus()
	return NewAuthStore(fc, fs, bus, logging.NewNop()), fc, fs, bus
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func record(bus *events.Bus, kind events.Kind) *[]events.Event {
	var got []events.Event
	bus.Subscribe(kind, func(ctx context.Context, e events.Event) error {
		got = append(got, e)
		return nil
	})
	return &got
}

// ---- tests ----

func TestAuthStore_Register_InvalidCredentials_NoRequest(t *testing.T) {
	s, fc, _, _ := newAuth(t)

	_, err := s.Register(context.Background(), models.Credentials{Email: "nope", Password: "1"})

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
	assert.Zero(t, fc.total())
	assert.Equal(t, StatusError, s.Status())
	assert.Equal(t, err, s.Err())
}

func TestAuthStore_Register_ServerRejectionBecomesFormError(t *testing.T) {
	s, fc, _, _ := newAuth(t)
	fc.RegisterErr = &client.ServerError{StatusCode: http.StatusBadRequest, Message: "Email already registered"}

	_, err := s.Register(context.Background(), goodCreds)

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{"form": "Email already registered"}, verr.Fields)
	assert.Nil(t, s.User())
}

func TestAuthStore_Register_Success(t *testing.T) {
	s, fc, _, _ := newAuth(t)
	fc.RegisterRet = &models.User{ID: "u1", Email: goodCreds.Email}

	u, err := s.Register(context.Background(), goodCreds)
	require.NoError(t, err)

	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "u1", s.User().ID)
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, StatusSuccess, s.Status())
}

func TestAuthStore_Register_KeepsSignedInUser(t *testing.T) {
	s, fc, _, _ := newAuth(t)
	fc.LoginRet = &models.Session{User: models.User{ID: "u1", Email: goodCreds.Email}, Token: "tok"}
	_, err := s.Login(context.Background(), goodCreds)
	require.NoError(t, err)

	fc.RegisterRet = &models.User{ID: "u2", Email: "bob@example.org"}
	u, err := s.Register(context.Background(), models.Credentials{Email: "bob@example.org", Password: "secret2"})
	require.NoError(t, err)

	assert.Equal(t, "u2", u.ID)
	assert.Equal(t, "u1", s.User().ID)
	assert.Equal(t, "tok", s.Token())
}

func TestAuthStore_Login_Success(t *testing.T) {
	s, fc, fs, bus := newAuth(t)
	loggedIn := record(bus, events.LoggedIn)
	fc.LoginRet = &models.Session{User: models.User{ID: "u1", Email: goodCreds.Email}, Token: "tok"}

	sess, err := s.Login(context.Background(), goodCreds)
	require.NoError(t, err)

	assert.Equal(t, "tok", sess.Token)
	assert.Equal(t, "tok", s.Token())
	assert.Equal(t, "tok", fc.Token())
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "u1", s.User().ID)
	assert.Equal(t, StatusSuccess, s.Status())
	require.NotNil(t, fs.Saved)
	assert.Equal(t, "tok", fs.Saved.Token)
	require.Len(t, *loggedIn, 1)
}

func TestAuthStore_Login_PersistFailureStillLogsIn(t *testing.T) {
	s, fc, fs, _ := newAuth(t)
	fs.SaveErr = errors.New("disk full")
	fc.LoginRet = &models.Session{User: models.User{ID: "u1"}, Token: "tok"}

	_, err := s.Login(context.Background(), goodCreds)
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
}

func TestAuthStore_Login_Rejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unauthorized", client.ErrUnauthorized},
		{"unknown user", client.ErrNotFound},
		{"wrong password", &client.ServerError{StatusCode: http.StatusBadRequest, Message: "Invalid credentials"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, fc, fs, bus := newAuth(t)
			loggedIn := record(bus, events.LoggedIn)
			fc.LoginErr = tt.err

			_, err := s.Login(context.Background(), goodCreds)

			require.ErrorIs(t, err, client.ErrUnauthorized)
			assert.Equal(t, StatusError, s.Status())
			assert.Nil(t, s.User())
			assert.False(t, s.IsAuthenticated())
			assert.Empty(t, fc.Token())
			assert.Nil(t, fs.Saved)
			assert.Empty(t, *loggedIn)
		})
	}
}

func TestAuthStore_Login_TransportFailureIsNotAuthError(t *testing.T) {
	s, fc, _, _ := newAuth(t)
	fc.LoginErr = client.ErrUnavailable

	_, err := s.Login(context.Background(), goodCreds)
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.NotErrorIs(t, err, client.ErrUnauthorized)
}

func TestAuthStore_Login_FailureKeepsPreviousUser(t *testing.T) {
	s, fc, _, _ := newAuth(t)
	fc.LoginRet = &models.Session{User: models.User{ID: "u1"}, Token: "tok"}
	_, err := s.Login(context.Background(), goodCreds)
	require.NoError(t, err)

	fc.LoginErr = client.ErrUnauthorized
	_, err = s.Login(context.Background(), goodCreds)
	require.Error(t, err)

	assert.Equal(t, "u1", s.User().ID)
	assert.Equal(t, "tok", s.Token())
}

func TestAuthStore_Logout(t *testing.T) {
	s, fc, fs, bus := newAuth(t)
	loggedOut := record(bus, events.LoggedOut)
	fc.LoginRet = &models.Session{User: models.User{ID: "u1"}, Token: "tok"}
	_, err := s.Login(context.Background(), goodCreds)
	require.NoError(t, err)
	before := fc.total()

	require.NoError(t, s.Logout(context.Background()))

	assert.Nil(t, s.User())
	assert.Empty(t, s.Token())
	assert.Empty(t, fc.Token())
	assert.Nil(t, fs.Saved)
	assert.Equal(t, StatusIdle, s.Status())
	assert.Equal(t, before, fc.total(), "logout must not hit the network")
	assert.Len(t, *loggedOut, 1)
}

func TestAuthStore_Logout_ClearFailureStillPublishes(t *testing.T) {
	s, _, fs, bus := newAuth(t)
	loggedOut := record(bus, events.LoggedOut)
	fs.ClearErr = errors.New("locked")

	err := s.Logout(context.Background())
	require.ErrorIs(t, err, fs.ClearErr)
	assert.Len(t, *loggedOut, 1)
}

func TestAuthStore_Restore(t *testing.T) {
	t.Run("nothing stored", func(t *testing.T) {
		s, _, _, _ := newAuth(t)
		ok, err := s.Restore(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
		assert.False(t, s.IsAuthenticated())
	})

	t.Run("valid jwt", func(t *testing.T) {
		s, fc, fs, bus := newAuth(t)
		loggedIn := record(bus, events.LoggedIn)
		tok := signedToken(t, time.Now().Add(time.Hour))
		fs.Saved = &models.Session{User: models.User{ID: "u1"}, Token: tok}

		ok, err := s.Restore(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, tok, fc.Token())
		assert.Equal(t, "u1", s.User().ID)
		assert.Len(t, *loggedIn, 1)
	})

	t.Run("expired jwt is discarded", func(t *testing.T) {
		s, fc, fs, _ := newAuth(t)
		fs.Saved = &models.Session{Token: signedToken(t, time.Now().Add(-time.Minute))}

		ok, err := s.Restore(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, fs.Saved)
		assert.Equal(t, 1, fs.Cleared)
		assert.Empty(t, fc.Token())
	})

	t.Run("opaque token never expires", func(t *testing.T) {
		s, fc, fs, _ := newAuth(t)
		fs.Saved = &models.Session{Token: "opaque-token"}

		ok, err := s.Restore(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "opaque-token", fc.Token())
		assert.Nil(t, s.User())
	})

	t.Run("load failure", func(t *testing.T) {
		s, _, fs, _ := newAuth(t)
		fs.LoadErr = errors.New("corrupt")

		_, err := s.Restore(context.Background())
		require.ErrorIs(t, err, fs.LoadErr)
	})
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	assert.True(t, tokenExpired(signedToken(t, now.Add(-time.Second)), now))
	assert.False(t, tokenExpired(signedToken(t, now.Add(time.Hour)), now))
	assert.False(t, tokenExpired("not-a-jwt", now))

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u"}).SignedString([]byte("k"))
	require.NoError(t, err)
	assert.False(t, tokenExpired(noExp, now))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "error", StatusError.String())
	assert.Equal(t, "unknown", Status(42).String())
}
