package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/caquick/caquick-api/internal/adapters/accesstoken"
	"github.com/caquick/caquick-api/internal/data/cryptoutil"
	domainauth "github.com/caquick/caquick-api/internal/domain/auth"
	apperrors "github.com/caquick/caquick-api/internal/errors"
	"github.com/caquick/caquick-api/internal/mocks"
	fakes "github.com/caquick/caquick-api/internal/mocks/auth"
	"github.com/caquick/caquick-api/internal/observability/metrics"
	"github.com/caquick/caquick-api/internal/observability/notify"
	"github.com/caquick/caquick-api/internal/ports"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// recordingSink counts metrics by name.
type recordingSink struct {
	mu     sync.Mutex
	counts map[string]int64
	tags   map[string][]map[string]string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{counts: map[string]int64{}, tags: map[string][]map[string]string{}}
}

func (r *recordingSink) Count(name string, value int64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[name] += value
	r.tags[name] = append(r.tags[name], tags)
}

func (r *recordingSink) Gauge(string, float64, map[string]string) {}
func (r *recordingSink) Timing(string, time.Duration, map[string]string) {}

func (r *recordingSink) count(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

type authHarness struct {
	svc   *AuthService
	store *fakes.MemoryCredentialStore
	idp   *fakes.MockIdentityClient
	codec *accesstoken.Codec
	sink  *recordingSink
}

func newAuthHarness(t *testing.T, claims map[string]any) *authHarness {
	t.Helper()
	clock := func() time.Time { return testNow }
	codec, err := accesstoken.New(accesstoken.Config{Secret: []byte("test-secret"), Now: clock})
	require.NoError(t, err)

	h := &authHarness{
		store: fakes.NewMemoryCredentialStore(clock),
		idp:   fakes.NewMockIdentityClient(claims),
		codec: codec,
		sink:  newRecordingSink(),
	}
	h.svc = NewAuthService(AuthServiceOptions{
		Identity: h.idp,
		Store:    h.store,
		Tokens:   codec,
		Hasher:   fakes.PlainHasher{},
		Metrics:  h.sink,
		Config: AuthConfig{
			FrontendBaseURL: "http://localhost:3000",
			AllowedReturnTo: []string{"https://www.caquick.site", "https://caquick.site/"},
		},
		Now: clock,
	})
	return h
}

// login runs start and callback with the handshake start produced.
func (h *authHarness) login(t *testing.T, returnTo string) *LoginResult {
	t.Helper()
	ctx := context.Background()
	start, err := h.svc.StartOIDCLogin(ctx, "google", returnTo)
	require.NoError(t, err)

	res, err := h.svc.HandleOIDCCallback(ctx, CallbackInput{
		Provider:  "google",
		Handshake: start.Handshake,
		Query:     url.Values{"code": {"auth-code"}, "state": {start.Handshake.State}},
		Client:    domainauth.ClientInfo{UserAgent: "test-agent", IP: "10.0.0.1"},
	})
	require.NoError(t, err)
	return res
}

func googleClaims() map[string]any {
	return map[string]any{"sub": "g-1", "email": "a@b.com", "email_verified": true, "name": "Kim"}
}

func TestAuthService_StartOIDCLogin(t *testing.T) {
	h := newAuthHarness(t, nil)

	res, err := h.svc.StartOIDCLogin(context.Background(), "Kakao", "https://caquick.site/orders?id=1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.RedirectURL, "https://mock-idp/authorize?"))
	assert.Equal(t, "state-1", res.Handshake.State)
	assert.Equal(t, "nonce-1", res.Handshake.Nonce)
	assert.Equal(t, "verifier-1", res.Handshake.CodeVerifier)
	assert.Equal(t, "https://caquick.site/orders?id=1", res.Handshake.ReturnTo)
}

func TestAuthService_StartOIDCLogin_UnsupportedProvider(t *testing.T) {
	h := newAuthHarness(t, nil)

	_, err := h.svc.StartOIDCLogin(context.Background(), "facebook", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "provider", apperrors.GetField(err))
}

func TestAuthService_NormalizeReturnTo(t *testing.T) {
	h := newAuthHarness(t, nil)
	const fallback = "http://localhost:3000"

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: fallback},
		{name: "frontend path", in: "http://localhost:3000/mypage", want: "http://localhost:3000/mypage"},
		{name: "allowed origin exact", in: "https://www.caquick.site", want: "https://www.caquick.site"},
		{name: "allowed origin with trailing slash configured", in: "https://caquick.site/cart", want: "https://caquick.site/cart"},
		{name: "allowed origin with query", in: "https://caquick.site?x=1", want: "https://caquick.site?x=1"},
		{name: "lookalike host", in: "https://caquick.site.evil.com/", want: fallback},
		{name: "other host", in: "https://evil.com/?next=https://caquick.site", want: fallback},
		{name: "scheme downgrade", in: "http://caquick.site/", want: fallback},
		{name: "javascript", in: "javascript:alert(1)", want: fallback},
		{name: "protocol relative", in: "//evil.com", want: fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.svc.NormalizeReturnTo(tt.in))
		})
	}
}

func TestAuthService_HandleOIDCCallback_RoundTrip(t *testing.T) {
	h := newAuthHarness(t, googleClaims())

	res := h.login(t, "https://www.caquick.site/welcome")

	assert.Equal(t, "https://www.caquick.site/welcome", res.ReturnTo)
	assert.Len(t, res.RefreshToken, 64)
	assert.Equal(t, testNow.Add(DefaultRefreshTTL), res.RefreshExpiresAt)

	claims, err := h.codec.Verify(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.AccountID, claims.AccountID)
	assert.Equal(t, 1, h.store.ActiveSessions(res.AccountID))

	require.Len(t, h.idp.Exchanges, 1)
	ex := h.idp.Exchanges[0]
	assert.Equal(t, "state-1", ex.State)
	assert.Equal(t, "nonce-1", ex.Nonce)
	assert.Equal(t, "verifier-1", ex.CodeVerifier)
	assert.Equal(t, "http://localhost:4000/auth/oidc/google/callback", ex.RedirectURI)

	acc := h.store.Account(res.AccountID)
	require.NotNil(t, acc)
	require.NotNil(t, acc.Email)
	assert.Equal(t, "a@b.com", *acc.Email)
	assert.Equal(t, int64(1), h.sink.count(metrics.MetricLogin))
}

func TestAuthService_HandleOIDCCallback_SameSubjectReusesAccount(t *testing.T) {
	h := newAuthHarness(t, googleClaims())

	first := h.login(t, "")
	second := h.login(t, "")

	assert.Equal(t, first.AccountID, second.AccountID)
	assert.Equal(t, 1, h.store.AccountCount())
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestAuthService_HandleOIDCCallback_MissingSession(t *testing.T) {
	tests := []struct {
		name      string
		handshake domainauth.Handshake
		query     url.Values
	}{
		{
			name:      "state cookie only and empty query",
			handshake: domainauth.Handshake{State: "X"},
			query:     url.Values{},
		},
		{
			name:      "no cookies at all",
			handshake: domainauth.Handshake{},
			query:     url.Values{"code": {"c"}, "state": {"X"}},
		},
		{
			name:      "verifier missing",
			handshake: domainauth.Handshake{State: "X", Nonce: "N"},
			query:     url.Values{"code": {"c"}, "state": {"X"}},
		},
		{
			name:      "full handshake but no callback parameters",
			handshake: domainauth.Handshake{State: "X", Nonce: "N", CodeVerifier: "V"},
			query:     url.Values{"unrelated": {"1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAuthHarness(t, googleClaims())
			_, err := h.svc.HandleOIDCCallback(context.Background(), CallbackInput{
				Provider:  "google",
				Handshake: tt.handshake,
				Query:     tt.query,
			})
			require.Error(t, err)
			assert.True(t, apperrors.IsUnauthenticated(err))
			assert.Equal(t, "OIDC session is missing", apperrors.PublicMessage(err, ""))
			assert.Empty(t, h.idp.Exchanges)
			assert.Equal(t, 0, h.store.AccountCount())
		})
	}
}

func TestAuthService_HandleOIDCCallback_AccountLinking(t *testing.T) {
	email := "a@b.com"

	t.Run("verified email attaches to existing account", func(t *testing.T) {
		h := newAuthHarness(t, map[string]any{"sub": "g-1", "email": email, "email_verified": true})
		existing := h.store.AddAccount(domainauth.Account{
			Type: domainauth.AccountTypeUser, Status: domainauth.AccountStatusActive, Email: &email,
		})

		res := h.login(t, "")
		assert.Equal(t, existing, res.AccountID)
		assert.Equal(t, 1, h.store.AccountCount())
	})

	t.Run("unverified email creates a new account", func(t *testing.T) {
		h := newAuthHarness(t, map[string]any{"sub": "g-1", "email": email, "email_verified": false})
		existing := h.store.AddAccount(domainauth.Account{
			Type: domainauth.AccountTypeUser, Status: domainauth.AccountStatusActive, Email: &email,
		})

		res := h.login(t, "")
		assert.NotEqual(t, existing, res.AccountID)
		assert.Equal(t, 2, h.store.AccountCount())
		assert.Nil(t, h.store.Account(res.AccountID).Email)
	})

	t.Run("string email_verified is not verified", func(t *testing.T) {
		h := newAuthHarness(t, map[string]any{"sub": "g-1", "email": email, "email_verified": "true"})
		existing := h.store.AddAccount(domainauth.Account{
			Type: domainauth.AccountTypeUser, Status: domainauth.AccountStatusActive, Email: &email,
		})

		res := h.login(t, "")
		assert.NotEqual(t, existing, res.AccountID)
	})
}

func TestAuthService_HandleOIDCCallback_Failures(t *testing.T) {
	t.Run("missing subject", func(t *testing.T) {
		h := newAuthHarness(t, map[string]any{"email": "a@b.com"})
		start, err := h.svc.StartOIDCLogin(context.Background(), "google", "")
		require.NoError(t, err)

		_, err = h.svc.HandleOIDCCallback(context.Background(), CallbackInput{
			Provider:  "google",
			Handshake: start.Handshake,
			Query:     url.Values{"code": {"c"}, "state": {start.Handshake.State}},
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsUpstreamAuth(err))
		assert.Equal(t, "authentication failed", apperrors.PublicMessage(err, ""))
		assert.Equal(t, 0, h.store.AccountCount())
	})

	t.Run("provider error", func(t *testing.T) {
		h := newAuthHarness(t, googleClaims())
		start, err := h.svc.StartOIDCLogin(context.Background(), "google", "")
		require.NoError(t, err)

		_, err = h.svc.HandleOIDCCallback(context.Background(), CallbackInput{
			Provider:  "google",
			Handshake: start.Handshake,
			Query:     url.Values{"error": {"access_denied"}, "state": {start.Handshake.State}},
		})
		assert.True(t, apperrors.IsUpstreamAuth(err))
	})

	t.Run("forged state", func(t *testing.T) {
		h := newAuthHarness(t, googleClaims())
		start, err := h.svc.StartOIDCLogin(context.Background(), "google", "")
		require.NoError(t, err)

		_, err = h.svc.HandleOIDCCallback(context.Background(), CallbackInput{
			Provider:  "google",
			Handshake: start.Handshake,
			Query:     url.Values{"code": {"c"}, "state": {"attacker"}},
		})
		assert.True(t, apperrors.IsUnauthenticated(err))
		assert.Equal(t, "OIDC session is missing", apperrors.PublicMessage(err, ""))
		assert.Equal(t, 0, h.store.AccountCount())
	})

	t.Run("nonce mismatch reads as missing session", func(t *testing.T) {
		h := newAuthHarness(t, googleClaims())
		h.idp.ExchangeFunc = func(context.Context, domainauth.Provider, ports.ExchangeInput) (ports.TokenSet, error) {
			return ports.TokenSet{}, apperrors.UpstreamAuth(fmt.Errorf("%w: nonce", ports.ErrHandshakeMismatch))
		}
		start, err := h.svc.StartOIDCLogin(context.Background(), "google", "")
		require.NoError(t, err)

		_, err = h.svc.HandleOIDCCallback(context.Background(), CallbackInput{
			Provider:  "google",
			Handshake: start.Handshake,
			Query:     url.Values{"code": {"c"}, "state": {start.Handshake.State}},
		})
		assert.True(t, apperrors.IsUnauthenticated(err))
		assert.Equal(t, "OIDC session is missing", apperrors.PublicMessage(err, ""))
	})

	t.Run("suspended account", func(t *testing.T) {
		h := newAuthHarness(t, googleClaims())
		first := h.login(t, "")
		h.store.SetStatus(first.AccountID, domainauth.AccountStatusSuspended)

		start, err := h.svc.StartOIDCLogin(context.Background(), "google", "")
		require.NoError(t, err)
		_, err = h.svc.HandleOIDCCallback(context.Background(), CallbackInput{
			Provider:  "google",
			Handshake: start.Handshake,
			Query:     url.Values{"code": {"c"}, "state": {start.Handshake.State}},
		})
		assert.True(t, apperrors.IsForbidden(err))
		assert.Equal(t, 1, h.store.ActiveSessions(first.AccountID))
	})
}

func TestAuthService_Refresh_Rotation(t *testing.T) {
	h := newAuthHarness(t, googleClaims())
	ctx := context.Background()
	login := h.login(t, "")

	rotated, err := h.svc.Refresh(ctx, login.RefreshToken, domainauth.ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, login.AccountID, rotated.AccountID)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, domainauth.AccountStatusActive, rotated.AccountStatus)
	assert.Equal(t, 1, h.store.ActiveSessions(login.AccountID))

	_, err = h.codec.Verify(rotated.AccessToken)
	require.NoError(t, err)

	// The successor keeps working on its own.
	again, err := h.svc.Refresh(ctx, rotated.RefreshToken, domainauth.ClientInfo{})
	require.NoError(t, err)
	assert.NotEqual(t, rotated.RefreshToken, again.RefreshToken)
}

func TestAuthService_Refresh_ReuseRevokesAllSessions(t *testing.T) {
	h := newAuthHarness(t, googleClaims())
	ctx := context.Background()
	login := h.login(t, "")

	rotated, err := h.svc.Refresh(ctx, login.RefreshToken, domainauth.ClientInfo{})
	require.NoError(t, err)

	_, err = h.svc.Refresh(ctx, login.RefreshToken, domainauth.ClientInfo{IP: "203.0.113.9"})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))
	assert.Equal(t, "Invalid refresh token", apperrors.PublicMessage(err, ""))

	assert.Equal(t, 0, h.store.ActiveSessions(login.AccountID))
	_, err = h.svc.Refresh(ctx, rotated.RefreshToken, domainauth.ClientInfo{})
	assert.True(t, apperrors.IsUnauthenticated(err))

	assert.Equal(t, int64(1), h.sink.count(metrics.MetricRefreshReuse))
	entries := h.store.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, domainauth.AuditActionRefreshTokenReused, entries[0].Action)
	assert.Equal(t, login.AccountID, entries[0].ActorAccountID)
	require.NotNil(t, entries[0].IPAddress)
	assert.Equal(t, "203.0.113.9", *entries[0].IPAddress)
}

type chanNotifier chan notify.SecurityEvent

func (c chanNotifier) NotifySecurityEvent(_ context.Context, ev notify.SecurityEvent) { c <- ev }

func TestAuthService_Refresh_ReuseRaisesSecurityAlert(t *testing.T) {
	h := newAuthHarness(t, googleClaims())
	alerts := make(chanNotifier, 1)
	h.svc.alerts = alerts
	ctx := context.Background()
	login := h.login(t, "")

	_, err := h.svc.Refresh(ctx, login.RefreshToken, domainauth.ClientInfo{})
	require.NoError(t, err)
	select {
	case ev := <-alerts:
		t.Fatalf("unexpected alert on normal rotation: %+v", ev)
	default:
	}

	_, err = h.svc.Refresh(ctx, login.RefreshToken, domainauth.ClientInfo{IP: "203.0.113.9", UserAgent: "ua"})
	require.Error(t, err)

	select {
	case ev := <-alerts:
		assert.Equal(t, notify.KindRefreshTokenReuse, ev.Kind)
		assert.Equal(t, login.AccountID, ev.AccountID)
		assert.Equal(t, "203.0.113.9", ev.IPAddress)
		assert.Equal(t, "1", ev.Metadata["revoked_sessions"])
		assert.Equal(t, testNow, ev.OccurredAt)
	case <-time.After(time.Second):
		t.Fatal("expected a security alert")
	}
}

func TestAuthService_Refresh_Errors(t *testing.T) {
	h := newAuthHarness(t, googleClaims())
	ctx := context.Background()

	_, err := h.svc.Refresh(ctx, "", domainauth.ClientInfo{})
	assert.True(t, apperrors.IsUnauthenticated(err))
	assert.Equal(t, "Missing refresh token", apperrors.PublicMessage(err, ""))

	_, err = h.svc.Refresh(ctx, "not-a-known-token", domainauth.ClientInfo{})
	assert.True(t, apperrors.IsUnauthenticated(err))
	assert.Equal(t, "Invalid refresh token", apperrors.PublicMessage(err, ""))
	assert.Zero(t, h.sink.count(metrics.MetricRefreshReuse))
}

func TestAuthService_Refresh_ConcurrentRotationLoses(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCredentialStore(ctrl)
	codec, err := accesstoken.New(accesstoken.Config{Secret: []byte("s")})
	require.NoError(t, err)

	svc := NewAuthService(AuthServiceOptions{Store: store, Tokens: codec, Now: func() time.Time { return testNow }})
	raw := "raw-token"
	session := &domainauth.RefreshSession{ID: 7, AccountID: 3, ExpiresAt: testNow.Add(time.Hour)}

	store.EXPECT().FindActiveRefreshSessionByHash(gomock.Any(), cryptoutil.SHA256Hex(raw)).Return(session, nil)
	store.EXPECT().FindAccountForTokenVerification(gomock.Any(), int64(3)).
		Return(&domainauth.Account{ID: 3, Status: domainauth.AccountStatusActive}, nil)
	store.EXPECT().RotateRefreshSession(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in ports.RotateRefreshSessionInput) (*domainauth.RefreshSession, error) {
			assert.Equal(t, int64(7), in.OldSessionID)
			assert.Equal(t, testNow.Add(DefaultRefreshTTL), in.NewExpiresAt)
			assert.Len(t, in.NewTokenHash, 64)
			return nil, apperrors.Unauthenticated("Invalid refresh token")
		})

	_, err = svc.Refresh(context.Background(), raw, domainauth.ClientInfo{})
	assert.True(t, apperrors.IsUnauthenticated(err))
}

func TestAuthService_Logout_Idempotent(t *testing.T) {
	h := newAuthHarness(t, googleClaims())
	ctx := context.Background()
	login := h.login(t, "")

	require.NoError(t, h.svc.Logout(ctx, login.RefreshToken))
	assert.Equal(t, 0, h.store.ActiveSessions(login.AccountID))

	require.NoError(t, h.svc.Logout(ctx, login.RefreshToken))
	require.NoError(t, h.svc.Logout(ctx, ""))
	require.NoError(t, h.svc.LogoutSeller(ctx, "unknown"))

	_, err := h.svc.Refresh(ctx, login.RefreshToken, domainauth.ClientInfo{})
	assert.True(t, apperrors.IsUnauthenticated(err))
}

func TestAuthService_Me(t *testing.T) {
	h := newAuthHarness(t, googleClaims())
	ctx := context.Background()
	login := h.login(t, "")

	me, err := h.svc.Me(ctx, login.AccountID)
	require.NoError(t, err)
	assert.True(t, me.NeedsProfile)
	require.NotNil(t, me.Nickname)
	assert.Equal(t, "Kim", *me.Nickname)
	assert.Nil(t, me.BirthDate)

	nick, phone := "kim", "010-0000-0000"
	birth := time.Date(1990, 3, 4, 0, 0, 0, 0, time.UTC)
	h.store.SetProfile(domainauth.UserProfile{
		AccountID: login.AccountID, Nickname: &nick, PhoneNumber: &phone, BirthDate: &birth,
	})

	me, err = h.svc.Me(ctx, login.AccountID)
	require.NoError(t, err)
	assert.False(t, me.NeedsProfile)
	require.NotNil(t, me.BirthDate)
	assert.Equal(t, "1990-03-04", *me.BirthDate)

	_, err = h.svc.Me(ctx, 999)
	assert.True(t, apperrors.IsUnauthenticated(err))
}

func TestAuthService_SellerLogin(t *testing.T) {
	h := newAuthHarness(t, nil)
	ctx := context.Background()
	id := h.store.AddSeller("shop1", "plain$correct-horse", domainauth.AccountStatusPending)

	res, err := h.svc.SellerLogin(ctx, SellerLoginInput{Username: " shop1 ", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, id, res.AccountID)
	assert.Equal(t, domainauth.AccountStatusPending, res.AccountStatus)
	assert.Equal(t, 1, h.store.LastLoginUpdates)
	assert.Equal(t, 1, h.store.ActiveSessions(id))

	tags := h.sink.tags[metrics.MetricLogin]
	require.Len(t, tags, 1)
	assert.Equal(t, "local_credential", tags[0]["method"])
}

func TestAuthService_SellerLogin_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		check    func(t *testing.T, err error)
	}{
		{
			name: "wrong password", username: "shop1", password: "nope",
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsUnauthenticated(err))
				assert.Equal(t, "Invalid credentials", apperrors.PublicMessage(err, ""))
			},
		},
		{
			name: "unknown user", username: "ghost", password: "correct-horse",
			check: func(t *testing.T, err error) {
				assert.Equal(t, "Invalid credentials", apperrors.PublicMessage(err, ""))
			},
		},
		{
			name: "suspended seller", username: "banned", password: "correct-horse",
			check: func(t *testing.T, err error) { assert.True(t, apperrors.IsForbidden(err)) },
		},
		{
			name: "empty password", username: "shop1", password: "",
			check: func(t *testing.T, err error) { assert.True(t, apperrors.IsValidation(err)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAuthHarness(t, nil)
			h.store.AddSeller("shop1", "plain$correct-horse", domainauth.AccountStatusActive)
			h.store.AddSeller("banned", "plain$correct-horse", domainauth.AccountStatusSuspended)

			_, err := h.svc.SellerLogin(context.Background(), SellerLoginInput{Username: tt.username, Password: tt.password})
			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, 0, h.store.LastLoginUpdates)
		})
	}
}

func TestAuthService_SellerLogin_WrongPasswordNeverTouchesLastLogin(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCredentialStore(ctrl)
	svc := NewAuthService(AuthServiceOptions{Store: store, Hasher: fakes.PlainHasher{}})

	store.EXPECT().FindSellerCredentialByUsername(gomock.Any(), "shop1").Return(&domainauth.SellerCredential{
		SellerAccountID: 5,
		Username:        "shop1",
		PasswordHash:    "plain$right",
		Account:         domainauth.Account{ID: 5, Type: domainauth.AccountTypeSeller, Status: domainauth.AccountStatusActive},
	}, nil)
	// No UpdateSellerLastLogin or CreateRefreshSession expectation: any call fails the test.

	_, err := svc.SellerLogin(context.Background(), SellerLoginInput{Username: "shop1", Password: "wrong"})
	assert.True(t, apperrors.IsUnauthenticated(err))
}

func TestAuthService_SellerLogin_NonSellerAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCredentialStore(ctrl)
	svc := NewAuthService(AuthServiceOptions{Store: store, Hasher: fakes.PlainHasher{}})

	store.EXPECT().FindSellerCredentialByUsername(gomock.Any(), "user1").Return(&domainauth.SellerCredential{
		SellerAccountID: 9,
		PasswordHash:    "plain$pw",
		Account:         domainauth.Account{ID: 9, Type: domainauth.AccountTypeUser, Status: domainauth.AccountStatusActive},
	}, nil)

	_, err := svc.SellerLogin(context.Background(), SellerLoginInput{Username: "user1", Password: "pw"})
	assert.True(t, apperrors.IsUnauthenticated(err))
}

func TestAuthService_SellerLogin_Throttled(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCredentialStore(ctrl)
	throttle := mocks.NewMockLoginThrottle(ctrl)
	sink := newRecordingSink()
	svc := NewAuthService(AuthServiceOptions{Store: store, Hasher: fakes.PlainHasher{}, Throttle: throttle, Metrics: sink})

	throttle.EXPECT().Allow(gomock.Any(), "seller:shop1").Return(false, nil)

	_, err := svc.SellerLogin(context.Background(), SellerLoginInput{Username: "Shop1", Password: "pw"})
	assert.True(t, apperrors.IsRateLimited(err))
	assert.Equal(t, int64(1), sink.count(metrics.MetricSellerThrottled))
}

func TestAuthService_SellerLogin_ResetsThrottleOnSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	throttle := mocks.NewMockLoginThrottle(ctrl)
	h := newAuthHarness(t, nil)
	h.svc.throttle = throttle
	h.store.AddSeller("shop1", "plain$pw-123456", domainauth.AccountStatusActive)

	gomock.InOrder(
		throttle.EXPECT().Allow(gomock.Any(), "seller:shop1").Return(true, nil),
		throttle.EXPECT().Reset(gomock.Any(), "seller:shop1").Return(nil),
	)

	_, err := h.svc.SellerLogin(context.Background(), SellerLoginInput{Username: "shop1", Password: "pw-123456"})
	require.NoError(t, err)
}

func TestAuthService_RefreshSeller(t *testing.T) {
	h := newAuthHarness(t, googleClaims())
	ctx := context.Background()
	id := h.store.AddSeller("shop1", "plain$pw-123456", domainauth.AccountStatusPending)

	login, err := h.svc.SellerLogin(ctx, SellerLoginInput{Username: "shop1", Password: "pw-123456"})
	require.NoError(t, err)

	res, err := h.svc.RefreshSeller(ctx, login.RefreshToken, domainauth.ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, id, res.AccountID)
	assert.Equal(t, domainauth.AccountStatusPending, res.AccountStatus)

	user := h.login(t, "")
	_, err = h.svc.RefreshSeller(ctx, user.RefreshToken, domainauth.ClientInfo{})
	assert.True(t, apperrors.IsUnauthenticated(err))
	assert.Equal(t, 1, h.store.ActiveSessions(user.AccountID))
}

func TestAuthService_ChangeSellerPassword(t *testing.T) {
	h := newAuthHarness(t, nil)
	ctx := context.Background()
	id := h.store.AddSeller("shop1", "plain$old-password", domainauth.AccountStatusActive)

	for range 2 {
		_, err := h.svc.SellerLogin(ctx, SellerLoginInput{Username: "shop1", Password: "old-password"})
		require.NoError(t, err)
	}
	require.Equal(t, 2, h.store.ActiveSessions(id))

	err := h.svc.ChangeSellerPassword(ctx, ChangePasswordInput{
		AccountID:       id,
		CurrentPassword: "old-password",
		NewPassword:     "new-password",
		Client:          domainauth.ClientInfo{UserAgent: "ua"},
	})
	require.NoError(t, err)

	assert.Equal(t, "plain$new-password", h.store.Seller(id).PasswordHash)
	assert.Equal(t, 0, h.store.ActiveSessions(id))

	entries := h.store.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, domainauth.AuditActionSellerPasswordChanged, entries[0].Action)
	assert.Equal(t, domainauth.AuditTargetSellerCredential, entries[0].TargetType)
	assert.Equal(t, int64(2), entries[0].After["revokedSessions"])

	_, err = h.svc.SellerLogin(ctx, SellerLoginInput{Username: "shop1", Password: "old-password"})
	assert.True(t, apperrors.IsUnauthenticated(err))
}

func TestAuthService_ChangeSellerPassword_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		current string
		next    string
		check   func(error) bool
	}{
		{name: "too short", current: "old-password", next: "short", check: apperrors.IsValidation},
		{name: "same as current", current: "old-password", next: "old-password", check: apperrors.IsValidation},
		{name: "wrong current", current: "guess-guess", next: "new-password", check: apperrors.IsUnauthenticated},
		{name: "missing current", current: "", next: "new-password", check: apperrors.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAuthHarness(t, nil)
			id := h.store.AddSeller("shop1", "plain$old-password", domainauth.AccountStatusActive)

			err := h.svc.ChangeSellerPassword(context.Background(), ChangePasswordInput{
				AccountID: id, CurrentPassword: tt.current, NewPassword: tt.next,
			})
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			assert.Equal(t, "plain$old-password", h.store.Seller(id).PasswordHash)
			assert.Empty(t, h.store.AuditEntries())
		})
	}
}

func TestAuthService_ChangeSellerPassword_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCredentialStore(ctrl)
	svc := NewAuthService(AuthServiceOptions{
		Store:  store,
		Hasher: fakes.PlainHasher{},
		Now:    func() time.Time { return testNow },
	})

	store.EXPECT().FindSellerCredentialByAccountID(gomock.Any(), int64(8)).
		Return(&domainauth.SellerCredential{
			SellerAccountID: 8,
			PasswordHash:    "plain$old-password",
			Account:         domainauth.Account{ID: 8, Type: domainauth.AccountTypeSeller, Status: domainauth.AccountStatusActive},
		}, nil)
	store.EXPECT().ChangeSellerPassword(gomock.Any(), int64(8), "plain$new-password", testNow).
		Return(int64(0), apperrors.Internal("revoke failed"))

	err := svc.ChangeSellerPassword(context.Background(), ChangePasswordInput{
		AccountID: 8, CurrentPassword: "old-password", NewPassword: "new-password",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInternal, apperrors.GetCode(err))
}

func TestAuthService_ChangeSellerPassword_RequiresSeller(t *testing.T) {
	h := newAuthHarness(t, googleClaims())
	user := h.login(t, "")

	err := h.svc.ChangeSellerPassword(context.Background(), ChangePasswordInput{
		AccountID: user.AccountID, CurrentPassword: "x-password", NewPassword: "y-password",
	})
	assert.True(t, apperrors.IsForbidden(err))
}

func TestUserInfoFromClaims(t *testing.T) {
	tests := []struct {
		name    string
		claims  map[string]any
		want    domainauth.OIDCUserInfo
		wantErr bool
	}{
		{
			name:   "full",
			claims: map[string]any{"sub": "k-1", "email": "x@y.z", "email_verified": true, "name": "N", "picture": "https://p"},
			want: domainauth.OIDCUserInfo{
				Provider: domainauth.IdentityProviderKakao, Subject: "k-1", Email: "x@y.z",
				EmailVerified: true, DisplayName: "N", PictureURL: "https://p",
			},
		},
		{
			name:   "nickname fallback",
			claims: map[string]any{"sub": "k-1", "nickname": "nick"},
			want:   domainauth.OIDCUserInfo{Provider: domainauth.IdentityProviderKakao, Subject: "k-1", DisplayName: "nick"},
		},
		{
			name:   "non-boolean verification ignored",
			claims: map[string]any{"sub": "k-1", "email_verified": 1},
			want:   domainauth.OIDCUserInfo{Provider: domainauth.IdentityProviderKakao, Subject: "k-1"},
		},
		{name: "missing subject", claims: map[string]any{"email": "x@y.z"}, wantErr: true},
		{name: "non-string subject", claims: map[string]any{"sub": 42}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UserInfoFromClaims(domainauth.ProviderKakao, tt.claims)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCallbackParamsFromQuery(t *testing.T) {
	got := CallbackParamsFromQuery(url.Values{
		"code":              {"c1", "c2"},
		"state":             {"s"},
		"error_description": {"d"},
		"iss":               {"https://issuer"},
	})
	assert.Equal(t, ports.CallbackParams{Code: "c1", State: "s", ErrorDescription: "d"}, got)
}

func TestSanitizeClient_TruncatesUserAgent(t *testing.T) {
	long := strings.Repeat("a", MaxUserAgentLength-1) + "가나"
	got := sanitizeClient(domainauth.ClientInfo{UserAgent: long, IP: " 10.0.0.1 "})

	assert.LessOrEqual(t, len(got.UserAgent), MaxUserAgentLength)
	assert.Equal(t, strings.Repeat("a", MaxUserAgentLength-1), got.UserAgent)
	assert.Equal(t, "10.0.0.1", got.IP)
}
