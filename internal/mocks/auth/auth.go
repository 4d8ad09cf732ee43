// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	domainauth "github.com/caquick/caquick-api/internal/domain/auth"
	apperrors "github.com/caquick/caquick-api/internal/errors"
	"github.com/caquick/caquick-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityClient  = (*MockIdentityClient)(nil)
	_ ports.CredentialStore = (*MemoryCredentialStore)(nil)
	_ ports.PasswordHasher  = PlainHasher{}
)

// MockIdentityClient simulates an OIDC provider with deterministic state/nonce/verifier values.
// ExchangeCode rejects provider errors, a state mismatch, and a missing code like the real client.
type MockIdentityClient struct {
	ExchangeFunc func(ctx context.Context, p domainauth.Provider, in ports.ExchangeInput) (ports.TokenSet, error)

	// Claims returned by a successful exchange. "nonce" is filled from the handshake.
	Claims  map[string]any
	AuthURL string

	mu        sync.Mutex
	callCount int
	// Exchanges records every ExchangeCode input.
	Exchanges []ports.ExchangeInput
}

// NewMockIdentityClient creates a MockIdentityClient returning claims on exchange.
func NewMockIdentityClient(claims map[string]any) *MockIdentityClient {
	return &MockIdentityClient{Claims: claims, AuthURL: "https://mock-idp/authorize"}
}

func (m *MockIdentityClient) BuildAuthorizationURL(_ context.Context, p domainauth.Provider) (ports.AuthorizationRequest, error) {
	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	state := fmt.Sprintf("state-%d", n)
	q := url.Values{"state": {state}, "provider": {string(p)}}
	return ports.AuthorizationRequest{
		URL:          m.AuthURL + "?" + q.Encode(),
		State:        state,
		Nonce:        fmt.Sprintf("nonce-%d", n),
		CodeVerifier: fmt.Sprintf("verifier-%d", n),
	}, nil
}

func (m *MockIdentityClient) ExchangeCode(ctx context.Context, p domainauth.Provider, in ports.ExchangeInput) (ports.TokenSet, error) {
	m.mu.Lock()
	m.Exchanges = append(m.Exchanges, in)
	m.mu.Unlock()

	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, p, in)
	}
	switch {
	case in.Params.Error != "":
		return ports.TokenSet{}, apperrors.UpstreamAuth(fmt.Errorf("provider error %q", in.Params.Error))
	case in.Params.State != in.State:
		return ports.TokenSet{}, apperrors.UpstreamAuth(fmt.Errorf("%w: state", ports.ErrHandshakeMismatch))
	case in.Params.Code == "":
		return ports.TokenSet{}, apperrors.UpstreamAuth(errors.New("missing code"))
	}
	claims := make(map[string]any, len(m.Claims)+1)
	for k, v := range m.Claims {
		claims[k] = v
	}
	claims["nonce"] = in.Nonce
	return ports.TokenSet{Claims: claims}, nil
}

func (m *MockIdentityClient) RedirectURI(p domainauth.Provider) string {
	return "http://localhost:4000/auth/oidc/" + string(p) + "/callback"
}

// PlainHasher is a fast, insecure PasswordHasher for unit tests.
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) { return "plain$" + password, nil }

func (PlainHasher) Verify(encodedHash, password string) (bool, error) {
	raw, ok := strings.CutPrefix(encodedHash, "plain$")
	if !ok {
		return false, errors.New("not a plain hash")
	}
	return raw == password, nil
}

// MemoryCredentialStore is an in-memory CredentialStore that follows the same linking and
// rotation rules as the PostgreSQL store.
type MemoryCredentialStore struct {
	mu       sync.Mutex
	now      func() time.Time
	nextID   int64
	accounts map[int64]*domainauth.Account
	profiles map[int64]*domainauth.UserProfile
	ids      []*domainauth.AccountIdentity
	sessions map[int64]*domainauth.RefreshSession
	sellers  map[int64]*domainauth.SellerCredential
	audit    []domainauth.AuditLogEntry

	// LastLoginUpdates counts UpdateSellerLastLogin calls.
	LastLoginUpdates int
}

// NewMemoryCredentialStore creates an empty store. now may be nil.
func NewMemoryCredentialStore(now func() time.Time) *MemoryCredentialStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryCredentialStore{
		now:      now,
		accounts: make(map[int64]*domainauth.Account),
		profiles: make(map[int64]*domainauth.UserProfile),
		sessions: make(map[int64]*domainauth.RefreshSession),
		sellers:  make(map[int64]*domainauth.SellerCredential),
	}
}

func (m *MemoryCredentialStore) id() int64 {
	m.nextID++
	return m.nextID
}

// AddAccount inserts an account and returns its id.
func (m *MemoryCredentialStore) AddAccount(a domainauth.Account) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.id()
	m.accounts[a.ID] = &a
	return a.ID
}

// SetStatus changes an account's status.
func (m *MemoryCredentialStore) SetStatus(accountID int64, status domainauth.AccountStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[accountID]; ok {
		a.Status = status
	}
}

// SetProfile replaces an account's profile.
func (m *MemoryCredentialStore) SetProfile(p domainauth.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.AccountID] = &p
}

// AddSeller inserts a SELLER account and its credential and returns the account id.
func (m *MemoryCredentialStore) AddSeller(username, passwordHash string, status domainauth.AccountStatus) int64 {
	id := m.AddAccount(domainauth.Account{Type: domainauth.AccountTypeSeller, Status: status})
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sellers[id] = &domainauth.SellerCredential{SellerAccountID: id, Username: username, PasswordHash: passwordHash}
	return id
}

// Account returns a copy of the account, or nil.
func (m *MemoryCredentialStore) Account(id int64) *domainauth.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		cp := *a
		return &cp
	}
	return nil
}

// AccountCount reports how many accounts exist.
func (m *MemoryCredentialStore) AccountCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

// ActiveSessions counts unrevoked, unexpired sessions of an account.
func (m *MemoryCredentialStore) ActiveSessions(accountID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for _, s := range m.sessions {
		if s.AccountID == accountID && s.IsActive(now) {
			n++
		}
	}
	return n
}

// Seller returns a copy of the seller credential, or nil.
func (m *MemoryCredentialStore) Seller(accountID int64) *domainauth.SellerCredential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sellerLocked(accountID)
}

// AuditEntries returns the appended audit entries.
func (m *MemoryCredentialStore) AuditEntries() []domainauth.AuditLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domainauth.AuditLogEntry(nil), m.audit...)
}

func (m *MemoryCredentialStore) FindIdentity(_ context.Context, p domainauth.IdentityProvider, subject string) (*domainauth.AccountIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.ids {
		if id.Provider == p && id.ProviderSubject == subject {
			cp := *id
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryCredentialStore) UpsertAccountByOIDC(_ context.Context, in ports.UpsertOIDCInput) (*domainauth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info := in.Info
	if info.Subject == "" {
		return nil, apperrors.Validation("provider subject is required")
	}

	var account *domainauth.Account
	for _, id := range m.ids {
		if id.Provider == info.Provider && id.ProviderSubject == info.Subject {
			account = m.accounts[id.AccountID]
			break
		}
	}
	if account == nil {
		if email := info.VerifiedEmail(); email != "" {
			account = m.accountByEmailLocked(email)
		}
		if account == nil {
			account = &domainauth.Account{ID: m.id(), Type: domainauth.AccountTypeUser, Status: domainauth.AccountStatusActive}
			m.accounts[account.ID] = account
		}
		m.ids = append(m.ids, &domainauth.AccountIdentity{
			ID: m.id(), AccountID: account.ID, Provider: info.Provider, ProviderSubject: info.Subject,
		})
	}
	if account.IsDeleted() {
		return nil, apperrors.Forbidden("Account is not available")
	}
	if account.Email == nil && info.VerifiedEmail() != "" {
		e := info.VerifiedEmail()
		account.Email = &e
	}
	if account.Name == nil && info.DisplayName != "" {
		n := info.DisplayName
		account.Name = &n
	}
	if _, ok := m.profiles[account.ID]; !ok {
		nick := info.DefaultNickname()
		m.profiles[account.ID] = &domainauth.UserProfile{AccountID: account.ID, Nickname: &nick}
	}
	cp := *account
	return &cp, nil
}

func (m *MemoryCredentialStore) accountByEmailLocked(email string) *domainauth.Account {
	var found *domainauth.Account
	for _, a := range m.accounts {
		if a.Email != nil && *a.Email == email && !a.IsDeleted() && (found == nil || a.ID < found.ID) {
			found = a
		}
	}
	return found
}

func (m *MemoryCredentialStore) CreateRefreshSession(_ context.Context, in ports.CreateRefreshSessionInput) (*domainauth.RefreshSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertSessionLocked(in), nil
}

func (m *MemoryCredentialStore) insertSessionLocked(in ports.CreateRefreshSessionInput) *domainauth.RefreshSession {
	s := &domainauth.RefreshSession{
		ID: m.id(), AccountID: in.AccountID, TokenHash: in.TokenHash,
		ExpiresAt: in.ExpiresAt, CreatedAt: m.now(),
	}
	if in.Client.UserAgent != "" {
		ua := in.Client.UserAgent
		s.UserAgent = &ua
	}
	if in.Client.IP != "" {
		ip := in.Client.IP
		s.IPAddress = &ip
	}
	m.sessions[s.ID] = s
	cp := *s
	return &cp
}

func (m *MemoryCredentialStore) FindActiveRefreshSessionByHash(_ context.Context, hash string) (*domainauth.RefreshSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.TokenHash == hash && s.IsActive(m.now()) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryCredentialStore) FindRefreshSessionByHash(_ context.Context, hash string) (*domainauth.RefreshSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.TokenHash == hash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryCredentialStore) RotateRefreshSession(_ context.Context, in ports.RotateRefreshSessionInput) (*domainauth.RefreshSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.sessions[in.OldSessionID]
	if !ok || old.RevokedAt != nil || old.AccountID != in.AccountID {
		return nil, apperrors.Unauthenticated("Invalid refresh token")
	}
	next := m.insertSessionLocked(ports.CreateRefreshSessionInput{
		AccountID: in.AccountID, TokenHash: in.NewTokenHash, ExpiresAt: in.NewExpiresAt, Client: in.Client,
	})
	at := in.Now
	old.RevokedAt = &at
	old.ReplacedBySessionID = &next.ID
	return next, nil
}

func (m *MemoryCredentialStore) RevokeRefreshSession(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok && s.RevokedAt == nil {
		s.RevokedAt = &at
	}
	return nil
}

func (m *MemoryCredentialStore) RevokeAllRefreshSessions(_ context.Context, accountID int64, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.sessions {
		if s.AccountID == accountID && s.RevokedAt == nil {
			s.RevokedAt = &at
			n++
		}
	}
	return n, nil
}

func (m *MemoryCredentialStore) FindAccountForTokenVerification(_ context.Context, id int64) (*domainauth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.IsDeleted() {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryCredentialStore) FindAccountForMe(ctx context.Context, id int64) (*domainauth.Account, *domainauth.UserProfile, error) {
	a, _ := m.FindAccountForTokenVerification(ctx, id)
	if a == nil {
		return nil, nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		cp := *p
		return a, &cp, nil
	}
	return a, nil, nil
}

func (m *MemoryCredentialStore) sellerLocked(accountID int64) *domainauth.SellerCredential {
	c, ok := m.sellers[accountID]
	if !ok {
		return nil
	}
	a := m.accounts[accountID]
	if a == nil || a.IsDeleted() {
		return nil
	}
	cp := *c
	cp.Account = *a
	return &cp
}

func (m *MemoryCredentialStore) FindSellerCredentialByUsername(_ context.Context, username string) (*domainauth.SellerCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.sellers {
		if c.Username == username {
			return m.sellerLocked(id), nil
		}
	}
	return nil, nil
}

func (m *MemoryCredentialStore) FindSellerCredentialByAccountID(_ context.Context, accountID int64) (*domainauth.SellerCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sellerLocked(accountID), nil
}

func (m *MemoryCredentialStore) UpdateSellerLastLogin(_ context.Context, accountID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastLoginUpdates++
	c, ok := m.sellers[accountID]
	if !ok {
		return apperrors.NotFound("Seller credential not found")
	}
	c.LastLoginAt = &at
	return nil
}

func (m *MemoryCredentialStore) ChangeSellerPassword(_ context.Context, accountID int64, hash string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sellers[accountID]
	if !ok {
		return 0, apperrors.NotFound("Seller credential not found")
	}
	c.PasswordHash = hash
	c.PasswordUpdatedAt = &at
	var n int64
	for _, s := range m.sessions {
		if s.AccountID == accountID && s.RevokedAt == nil {
			s.RevokedAt = &at
			n++
		}
	}
	return n, nil
}

func (m *MemoryCredentialStore) AppendAuditLog(_ context.Context, entry domainauth.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}
