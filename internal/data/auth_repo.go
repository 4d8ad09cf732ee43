package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/caquick/caquick-api/internal/data/pgxutil"
	domainauth "github.com/caquick/caquick-api/internal/domain/auth"
	apperrors "github.com/caquick/caquick-api/internal/errors"
	"github.com/caquick/caquick-api/internal/ports"
)

// ErrSessionAlreadyRotated is the cause attached when a rotation loses the race for the old session.
var ErrSessionAlreadyRotated = errors.New("refresh session already revoked")

// AuthRepo is the PostgreSQL implementation of ports.CredentialStore.
type AuthRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ ports.CredentialStore = (*AuthRepo)(nil)

// NewAuthRepo creates a new AuthRepo with real time provider.
func NewAuthRepo(db *sql.DB) *AuthRepo {
	return &AuthRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewAuthRepoWithTimeProvider creates a new AuthRepo with a custom time provider (useful for tests).
func NewAuthRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *AuthRepo {
	return &AuthRepo{DB: db, timeProvider: tp}
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	accountColumns = `a.id, a.account_type, a.status, a.email, a.name, a.created_at, a.updated_at, a.deleted_at`

	identityColumns = `id, account_id, provider, provider_subject, provider_email,
		provider_display_name, provider_profile_image_url, last_login_at`

	sessionColumns = `id, account_id, token_hash, expires_at, revoked_at,
		replaced_by_session_id, user_agent, ip_address, created_at`

	sellerColumns = `c.seller_account_id, c.username, c.password_hash, c.password_updated_at, c.last_login_at, ` +
		accountColumns
)

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func accountDest(a *domainauth.Account, email, name *sql.NullString, deletedAt *sql.NullTime) []any {
	return []any{&a.ID, &a.Type, &a.Status, email, name, &a.CreatedAt, &a.UpdatedAt, deletedAt}
}

func finishAccount(a *domainauth.Account, email, name sql.NullString, deletedAt sql.NullTime) {
	a.Email = stringPtr(email)
	a.Name = stringPtr(name)
	a.DeletedAt = timePtr(deletedAt)
}

func scanAccount(row rowScanner) (*domainauth.Account, error) {
	var (
		a         domainauth.Account
		email     sql.NullString
		name      sql.NullString
		deletedAt sql.NullTime
	)
	if err := row.Scan(accountDest(&a, &email, &name, &deletedAt)...); err != nil {
		return nil, err
	}
	finishAccount(&a, email, name, deletedAt)
	return &a, nil
}

func scanIdentity(row rowScanner) (*domainauth.AccountIdentity, error) {
	var (
		id                       domainauth.AccountIdentity
		email, display, imageURL sql.NullString
		lastLogin                sql.NullTime
	)
	err := row.Scan(&id.ID, &id.AccountID, &id.Provider, &id.ProviderSubject,
		&email, &display, &imageURL, &lastLogin)
	if err != nil {
		return nil, err
	}
	id.ProviderEmail = stringPtr(email)
	id.ProviderDisplayName = stringPtr(display)
	id.ProviderProfileImageURL = stringPtr(imageURL)
	id.LastLoginAt = timePtr(lastLogin)
	return &id, nil
}

func scanSession(row rowScanner) (*domainauth.RefreshSession, error) {
	var (
		s          domainauth.RefreshSession
		revokedAt  sql.NullTime
		replacedBy sql.NullInt64
		ua, ip     sql.NullString
	)
	err := row.Scan(&s.ID, &s.AccountID, &s.TokenHash, &s.ExpiresAt, &revokedAt,
		&replacedBy, &ua, &ip, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.RevokedAt = timePtr(revokedAt)
	if replacedBy.Valid {
		v := replacedBy.Int64
		s.ReplacedBySessionID = &v
	}
	s.UserAgent = stringPtr(ua)
	s.IPAddress = stringPtr(ip)
	return &s, nil
}

func scanSellerCredential(row rowScanner) (*domainauth.SellerCredential, error) {
	var (
		c                    domainauth.SellerCredential
		pwUpdated, lastLogin sql.NullTime
		email, name          sql.NullString
		accountDeletedAt     sql.NullTime
	)
	dest := append([]any{&c.SellerAccountID, &c.Username, &c.PasswordHash, &pwUpdated, &lastLogin},
		accountDest(&c.Account, &email, &name, &accountDeletedAt)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	c.PasswordUpdatedAt = timePtr(pwUpdated)
	c.LastLoginAt = timePtr(lastLogin)
	finishAccount(&c.Account, email, name, accountDeletedAt)
	return &c, nil
}

// noneIfMissing turns sql.ErrNoRows into (nil, nil) and maps everything else.
func noneIfMissing[T any](v *T, err error, op string) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperrors.MapDBError(err))
	}
	return v, nil
}

// --- identities and accounts ---

// FindIdentity returns the identity bound to (provider, subject), or nil.
func (r *AuthRepo) FindIdentity(
	ctx context.Context,
	provider domainauth.IdentityProvider,
	subject string,
) (*domainauth.AccountIdentity, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+identityColumns+`
		FROM account_identities
		WHERE provider = $1 AND provider_subject = $2 AND deleted_at IS NULL`,
		provider, subject)
	id, err := scanIdentity(row)
	return noneIfMissing(id, err, "find identity")
}

// UpsertAccountByOIDC resolves the account for a federated identity in a single transaction:
// an existing (provider, subject) binding wins; otherwise a verified email attaches to the
// matching account; otherwise a new USER account is created. A profile is ensured either way.
func (r *AuthRepo) UpsertAccountByOIDC(ctx context.Context, in ports.UpsertOIDCInput) (*domainauth.Account, error) {
	if in.Info.Subject == "" {
		return nil, apperrors.Validation("provider subject is required")
	}
	now := in.Now
	if now.IsZero() {
		now = r.timeProvider.Now()
	}

	var account *domainauth.Account
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Detached: true,
		Fn: func(tx *sql.Tx) error {
			accountID, err := r.resolveAccountID(ctx, tx, in.Info, now)
			if err != nil {
				return err
			}
			if err := ensureProfile(ctx, tx, accountID, in.Info, now); err != nil {
				return err
			}
			account, err = scanAccount(tx.QueryRowContext(ctx,
				`SELECT `+accountColumns+` FROM accounts a WHERE a.id = $1 AND a.deleted_at IS NULL`, accountID))
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.Forbidden("Account is not available")
			}
			return err
		},
	})
	if err != nil {
		if apperrors.GetCode(err) != "" {
			return nil, err
		}
		return nil, fmt.Errorf("upsert account by oidc: %w", apperrors.MapDBError(err))
	}
	return account, nil
}

func (r *AuthRepo) resolveAccountID(ctx context.Context, tx *sql.Tx, info domainauth.OIDCUserInfo, now time.Time) (int64, error) {
	var identityID, accountID int64
	err := tx.QueryRowContext(ctx, `SELECT id, account_id FROM account_identities
		WHERE provider = $1 AND provider_subject = $2 AND deleted_at IS NULL
		FOR UPDATE`, info.Provider, info.Subject).Scan(&identityID, &accountID)
	switch {
	case err == nil:
		return accountID, refreshIdentity(ctx, tx, identityID, accountID, info, now)
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("lock identity: %w", err)
	}

	accountID, err = r.linkOrCreateAccount(ctx, tx, info, now)
	if err != nil {
		return 0, err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO account_identities
		(account_id, provider, provider_subject, provider_email, provider_display_name,
		 provider_profile_image_url, last_login_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $7)`,
		accountID, info.Provider, info.Subject,
		nullIfEmpty(info.Email), nullIfEmpty(info.DisplayName), nullIfEmpty(info.PictureURL), now)
	if err != nil {
		return 0, fmt.Errorf("insert identity: %w", err)
	}
	return accountID, nil
}

// refreshIdentity updates cached provider fields and fills account email/name only where null.
func refreshIdentity(ctx context.Context, tx *sql.Tx, identityID, accountID int64, info domainauth.OIDCUserInfo, now time.Time) error {
	_, err := tx.ExecContext(ctx, `UPDATE account_identities
		SET provider_email = $2, provider_display_name = $3, provider_profile_image_url = $4,
		    last_login_at = $5, updated_at = $5
		WHERE id = $1`,
		identityID, nullIfEmpty(info.Email), nullIfEmpty(info.DisplayName), nullIfEmpty(info.PictureURL), now)
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	return fillAccountBlanks(ctx, tx, accountID, info, now)
}

func fillAccountBlanks(ctx context.Context, tx *sql.Tx, accountID int64, info domainauth.OIDCUserInfo, now time.Time) error {
	_, err := tx.ExecContext(ctx, `UPDATE accounts
		SET email = COALESCE(email, $2), name = COALESCE(name, $3), updated_at = $4
		WHERE id = $1 AND deleted_at IS NULL`,
		accountID, nullIfEmpty(info.VerifiedEmail()), nullIfEmpty(info.DisplayName), now)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

// linkOrCreateAccount attaches to the account owning a verified email, or creates a new USER account.
// An unverified email never selects an existing account.
func (r *AuthRepo) linkOrCreateAccount(ctx context.Context, tx *sql.Tx, info domainauth.OIDCUserInfo, now time.Time) (int64, error) {
	var accountID int64
	if email := info.VerifiedEmail(); email != "" {
		err := tx.QueryRowContext(ctx, `SELECT id FROM accounts
			WHERE email = $1 AND deleted_at IS NULL
			ORDER BY id
			LIMIT 1
			FOR UPDATE`, email).Scan(&accountID)
		switch {
		case err == nil:
			return accountID, fillAccountBlanks(ctx, tx, accountID, info, now)
		case !errors.Is(err, sql.ErrNoRows):
			return 0, fmt.Errorf("find account by email: %w", err)
		}
	}

	err := tx.QueryRowContext(ctx, `INSERT INTO accounts
		(account_type, status, email, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id`,
		domainauth.AccountTypeUser, domainauth.AccountStatusActive,
		nullIfEmpty(info.VerifiedEmail()), nullIfEmpty(info.DisplayName), now).Scan(&accountID)
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	return accountID, nil
}

func ensureProfile(ctx context.Context, tx *sql.Tx, accountID int64, info domainauth.OIDCUserInfo, now time.Time) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO user_profiles
		(account_id, nickname, profile_image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (account_id) DO NOTHING`,
		accountID, info.DefaultNickname(), nullIfEmpty(info.PictureURL), now)
	if err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}
	return nil
}

// FindAccountForTokenVerification returns the live account row, or nil when missing or soft-deleted.
func (r *AuthRepo) FindAccountForTokenVerification(ctx context.Context, accountID int64) (*domainauth.Account, error) {
	a, err := scanAccount(r.DB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts a WHERE a.id = $1 AND a.deleted_at IS NULL`, accountID))
	return noneIfMissing(a, err, "find account")
}

// FindAccountForMe returns the account and its profile (profile may be nil).
func (r *AuthRepo) FindAccountForMe(ctx context.Context, accountID int64) (*domainauth.Account, *domainauth.UserProfile, error) {
	var (
		a                      domainauth.Account
		email, name            sql.NullString
		deletedAt              sql.NullTime
		profileID              sql.NullInt64
		nickname, phone, image sql.NullString
		birth                  sql.NullTime
	)
	dest := append(accountDest(&a, &email, &name, &deletedAt), &profileID, &nickname, &birth, &phone, &image)
	err := r.DB.QueryRowContext(ctx, `SELECT `+accountColumns+`,
			p.account_id, p.nickname, p.birth_date, p.phone_number, p.profile_image_url
		FROM accounts a
		LEFT JOIN user_profiles p ON p.account_id = a.id AND p.deleted_at IS NULL
		WHERE a.id = $1 AND a.deleted_at IS NULL`, accountID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("find account for me: %w", apperrors.MapDBError(err))
	}
	finishAccount(&a, email, name, deletedAt)

	var profile *domainauth.UserProfile
	if profileID.Valid {
		profile = &domainauth.UserProfile{
			AccountID:       profileID.Int64,
			Nickname:        stringPtr(nickname),
			BirthDate:       timePtr(birth),
			PhoneNumber:     stringPtr(phone),
			ProfileImageURL: stringPtr(image),
		}
	}
	return &a, profile, nil
}

// --- refresh sessions ---

// CreateRefreshSession inserts a new active session.
func (r *AuthRepo) CreateRefreshSession(ctx context.Context, in ports.CreateRefreshSessionInput) (*domainauth.RefreshSession, error) {
	s, err := insertSession(ctx, r.DB, in, r.timeProvider.Now())
	if err != nil {
		return nil, fmt.Errorf("create refresh session: %w", apperrors.MapDBError(err))
	}
	return s, nil
}

func insertSession(ctx context.Context, q querier, in ports.CreateRefreshSessionInput, now time.Time) (*domainauth.RefreshSession, error) {
	return scanSession(q.QueryRowContext(ctx, `INSERT INTO auth_refresh_sessions
		(account_id, token_hash, user_agent, ip_address, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING `+sessionColumns,
		in.AccountID, in.TokenHash, nullIfEmpty(in.Client.UserAgent), nullIfEmpty(in.Client.IP), in.ExpiresAt, now))
}

// FindActiveRefreshSessionByHash returns an unrevoked, unexpired session, or nil.
func (r *AuthRepo) FindActiveRefreshSessionByHash(ctx context.Context, tokenHash string) (*domainauth.RefreshSession, error) {
	s, err := scanSession(r.DB.QueryRowContext(ctx, `SELECT `+sessionColumns+`
		FROM auth_refresh_sessions
		WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > $2 AND deleted_at IS NULL`,
		tokenHash, r.timeProvider.Now()))
	return noneIfMissing(s, err, "find active refresh session")
}

// FindRefreshSessionByHash returns the session regardless of state, or nil.
func (r *AuthRepo) FindRefreshSessionByHash(ctx context.Context, tokenHash string) (*domainauth.RefreshSession, error) {
	s, err := scanSession(r.DB.QueryRowContext(ctx, `SELECT `+sessionColumns+`
		FROM auth_refresh_sessions
		WHERE token_hash = $1 AND deleted_at IS NULL`, tokenHash))
	return noneIfMissing(s, err, "find refresh session")
}

// RotateRefreshSession inserts the successor and revokes the old session in one transaction.
// Losing a concurrent rotation rolls everything back with an unauthenticated error.
func (r *AuthRepo) RotateRefreshSession(ctx context.Context, in ports.RotateRefreshSessionInput) (*domainauth.RefreshSession, error) {
	now := in.Now
	if now.IsZero() {
		now = r.timeProvider.Now()
	}

	var next *domainauth.RefreshSession
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Detached: true,
		Fn: func(tx *sql.Tx) error {
			var err error
			next, err = insertSession(ctx, tx, ports.CreateRefreshSessionInput{
				AccountID: in.AccountID,
				TokenHash: in.NewTokenHash,
				ExpiresAt: in.NewExpiresAt,
				Client:    in.Client,
			}, now)
			if err != nil {
				return fmt.Errorf("insert successor: %w", err)
			}

			res, err := tx.ExecContext(ctx, `UPDATE auth_refresh_sessions
				SET revoked_at = $2, replaced_by_session_id = $3, updated_at = $2
				WHERE id = $1 AND account_id = $4 AND revoked_at IS NULL AND deleted_at IS NULL`,
				in.OldSessionID, now, next.ID, in.AccountID)
			if err != nil {
				return fmt.Errorf("revoke predecessor: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("revoke predecessor: %w", err)
			}
			if n == 0 {
				return apperrors.Wrap(ErrSessionAlreadyRotated, apperrors.ErrCodeUnauthenticated, "Invalid refresh token")
			}
			return nil
		},
	})
	if err != nil {
		if apperrors.GetCode(err) != "" {
			return nil, err
		}
		return nil, fmt.Errorf("rotate refresh session: %w", apperrors.MapDBError(err))
	}
	return next, nil
}

// RevokeRefreshSession marks one session revoked. Already-revoked sessions are left untouched.
func (r *AuthRepo) RevokeRefreshSession(ctx context.Context, sessionID int64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE auth_refresh_sessions
		SET revoked_at = $2, updated_at = $2
		WHERE id = $1 AND revoked_at IS NULL`, sessionID, at)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", apperrors.MapDBError(err))
	}
	return nil
}

// RevokeAllRefreshSessions revokes every active session of an account and reports how many changed.
func (r *AuthRepo) RevokeAllRefreshSessions(ctx context.Context, accountID int64, at time.Time) (int64, error) {
	return revokeAllSessions(ctx, r.DB, accountID, at)
}

func revokeAllSessions(ctx context.Context, q querier, accountID int64, at time.Time) (int64, error) {
	res, err := q.ExecContext(ctx, `UPDATE auth_refresh_sessions
		SET revoked_at = $2, updated_at = $2
		WHERE account_id = $1 AND revoked_at IS NULL`, accountID, at)
	if err != nil {
		return 0, fmt.Errorf("revoke all refresh sessions: %w", apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("revoke all refresh sessions: %w", err)
	}
	return n, nil
}

// --- seller credentials ---

const sellerFrom = ` FROM seller_credentials c
	JOIN accounts a ON a.id = c.seller_account_id
	WHERE c.deleted_at IS NULL AND a.deleted_at IS NULL`

// FindSellerCredentialByUsername returns the credential with its account, or nil.
func (r *AuthRepo) FindSellerCredentialByUsername(ctx context.Context, username string) (*domainauth.SellerCredential, error) {
	c, err := scanSellerCredential(r.DB.QueryRowContext(ctx,
		`SELECT `+sellerColumns+sellerFrom+` AND c.username = $1`, username))
	return noneIfMissing(c, err, "find seller credential")
}

// FindSellerCredentialByAccountID returns the credential with its account, or nil.
func (r *AuthRepo) FindSellerCredentialByAccountID(ctx context.Context, accountID int64) (*domainauth.SellerCredential, error) {
	c, err := scanSellerCredential(r.DB.QueryRowContext(ctx,
		`SELECT `+sellerColumns+sellerFrom+` AND c.seller_account_id = $1`, accountID))
	return noneIfMissing(c, err, "find seller credential")
}

// UpdateSellerLastLogin stamps a successful login.
func (r *AuthRepo) UpdateSellerLastLogin(ctx context.Context, accountID int64, at time.Time) error {
	return updateSellerCredential(ctx, r.DB, "update seller last login", `UPDATE seller_credentials
		SET last_login_at = $2, updated_at = $2
		WHERE seller_account_id = $1 AND deleted_at IS NULL`, accountID, at)
}

// ChangeSellerPassword replaces the stored hash, stamps password_updated_at and revokes every
// active refresh session of the seller in one transaction.
func (r *AuthRepo) ChangeSellerPassword(ctx context.Context, accountID int64, hash string, at time.Time) (int64, error) {
	var revoked int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Detached: true,
		Fn: func(tx *sql.Tx) error {
			if err := updateSellerCredential(ctx, tx, "update seller password", `UPDATE seller_credentials
				SET password_hash = $3, password_updated_at = $2, updated_at = $2
				WHERE seller_account_id = $1 AND deleted_at IS NULL`, accountID, at, hash); err != nil {
				return err
			}
			var err error
			revoked, err = revokeAllSessions(ctx, tx, accountID, at)
			return err
		},
	})
	if err != nil {
		return 0, err
	}
	return revoked, nil
}

func updateSellerCredential(ctx context.Context, q querier, op, query string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return apperrors.NotFound("Seller credential not found")
	}
	return nil
}

// CreateSellerInput groups parameters for provisioning a seller.
type CreateSellerInput struct {
	Username     string
	PasswordHash string
	Email        string
	Name         string
	Status       domainauth.AccountStatus
}

// CreateSeller inserts a SELLER account and its credential in one transaction.
func (r *AuthRepo) CreateSeller(ctx context.Context, in CreateSellerInput) (*domainauth.SellerCredential, error) {
	if in.Username == "" || in.PasswordHash == "" {
		return nil, apperrors.Validation("username and password hash are required")
	}
	status := in.Status
	if status == "" {
		status = domainauth.AccountStatusPending
	}
	now := r.timeProvider.Now()

	var accountID int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Detached: true,
		Fn: func(tx *sql.Tx) error {
			if err := tx.QueryRowContext(ctx, `INSERT INTO accounts
				(account_type, status, email, name, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $5)
				RETURNING id`,
				domainauth.AccountTypeSeller, status, nullIfEmpty(in.Email), nullIfEmpty(in.Name), now,
			).Scan(&accountID); err != nil {
				return fmt.Errorf("insert seller account: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO seller_credentials
				(seller_account_id, username, password_hash, password_updated_at, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $4, $4)`,
				accountID, in.Username, in.PasswordHash, now); err != nil {
				return fmt.Errorf("insert seller credential: %w", err)
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create seller: %w", apperrors.MapDBError(err))
	}
	return r.FindSellerCredentialByAccountID(ctx, accountID)
}

// --- audit ---

// AppendAuditLog inserts an audit entry. Before/After are stored as JSONB.
func (r *AuthRepo) AppendAuditLog(ctx context.Context, entry domainauth.AuditLogEntry) error {
	before, err := jsonOrNull(entry.Before)
	if err != nil {
		return fmt.Errorf("encode audit before: %w", err)
	}
	after, err := jsonOrNull(entry.After)
	if err != nil {
		return fmt.Errorf("encode audit after: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO audit_logs
		(actor_account_id, target_type, target_id, action, before_json, after_json, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ActorAccountID, entry.TargetType, entry.TargetID, entry.Action,
		before, after, entry.IPAddress, entry.UserAgent, r.timeProvider.Now())
	if err != nil {
		return fmt.Errorf("append audit log: %w", apperrors.MapDBError(err))
	}
	return nil
}

// --- null helpers ---

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time
	return &v
}

func jsonOrNull(m map[string]any) (any, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
