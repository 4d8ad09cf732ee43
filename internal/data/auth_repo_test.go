package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/caquick/caquick-api/internal/domain/auth"
	apperrors "github.com/caquick/caquick-api/internal/errors"
	"github.com/caquick/caquick-api/internal/ports"
)

var (
	repoNow = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	accountCols = []string{"id", "account_type", "status", "email", "name", "created_at", "updated_at", "deleted_at"}
	sessionCols = []string{
		"id", "account_id", "token_hash", "expires_at", "revoked_at",
		"replaced_by_session_id", "user_agent", "ip_address", "created_at",
	}
)

func newMockRepo(t *testing.T) (*AuthRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewAuthRepoWithTimeProvider(db, NewFixedTimeProvider(repoNow)), mock
}

func accountRow(id int64, email any) *sqlmock.Rows {
	return sqlmock.NewRows(accountCols).
		AddRow(id, "USER", "ACTIVE", email, "Kim", repoNow, repoNow, nil)
}

func TestAuthRepo_FindIdentity(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectQuery("FROM account_identities").
		WithArgs("GOOGLE", "g-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "account_id", "provider", "provider_subject", "provider_email",
			"provider_display_name", "provider_profile_image_url", "last_login_at",
		}).AddRow(3, 5, "GOOGLE", "g-1", "a@b.com", nil, nil, repoNow))

	id, err := repo.FindIdentity(ctx, domainauth.IdentityProviderGoogle, "g-1")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, int64(5), id.AccountID)
	require.NotNil(t, id.ProviderEmail)
	assert.Equal(t, "a@b.com", *id.ProviderEmail)
	assert.Nil(t, id.ProviderDisplayName)

	mock.ExpectQuery("FROM account_identities").
		WithArgs("KAKAO", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	id, err = repo.FindIdentity(ctx, domainauth.IdentityProviderKakao, "missing")
	require.NoError(t, err)
	assert.Nil(t, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRepo_UpsertAccountByOIDC_ExistingIdentity(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, account_id FROM account_identities").
		WithArgs("GOOGLE", "g-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id"}).AddRow(3, 5))
	mock.ExpectExec("UPDATE account_identities").
		WithArgs(3, "a@b.com", "Kim", nil, repoNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE accounts").
		WithArgs(5, "a@b.com", "Kim", repoNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_profiles").
		WithArgs(5, "Kim", nil, repoNow).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM accounts a WHERE a.id").
		WithArgs(5).
		WillReturnRows(accountRow(5, "a@b.com"))
	mock.ExpectCommit()

	acc, err := repo.UpsertAccountByOIDC(context.Background(), ports.UpsertOIDCInput{
		Info: domainauth.OIDCUserInfo{
			Provider: domainauth.IdentityProviderGoogle, Subject: "g-1",
			Email: "a@b.com", EmailVerified: true, DisplayName: "Kim",
		},
		Now: repoNow,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), acc.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRepo_UpsertAccountByOIDC_VerifiedEmailLinksExistingAccount(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, account_id FROM account_identities").
		WithArgs("GOOGLE", "g-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id"}))
	mock.ExpectQuery("SELECT id FROM accounts").
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec("UPDATE accounts").
		WithArgs(5, "a@b.com", nil, repoNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO account_identities").
		WithArgs(5, "GOOGLE", "g-1", "a@b.com", nil, nil, repoNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_profiles").
		WithArgs(5, "a", nil, repoNow).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM accounts a WHERE a.id").
		WithArgs(5).
		WillReturnRows(accountRow(5, "a@b.com"))
	mock.ExpectCommit()

	acc, err := repo.UpsertAccountByOIDC(context.Background(), ports.UpsertOIDCInput{
		Info: domainauth.OIDCUserInfo{
			Provider: domainauth.IdentityProviderGoogle, Subject: "g-1",
			Email: "a@b.com", EmailVerified: true,
		},
		Now: repoNow,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), acc.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRepo_UpsertAccountByOIDC_UnverifiedEmailCreatesAccount(t *testing.T) {
	repo, mock := newMockRepo(t)

	// No lookup by email may happen: the next statement after the identity miss is the insert.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, account_id FROM account_identities").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id"}))
	mock.ExpectQuery("INSERT INTO accounts").
		WithArgs("USER", "ACTIVE", nil, "Kim", repoNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec("INSERT INTO account_identities").
		WithArgs(9, "GOOGLE", "g-1", "a@b.com", "Kim", nil, repoNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_profiles").
		WithArgs(9, "Kim", nil, repoNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM accounts a WHERE a.id").
		WithArgs(9).
		WillReturnRows(accountRow(9, nil))
	mock.ExpectCommit()

	acc, err := repo.UpsertAccountByOIDC(context.Background(), ports.UpsertOIDCInput{
		Info: domainauth.OIDCUserInfo{
			Provider: domainauth.IdentityProviderGoogle, Subject: "g-1",
			Email: "a@b.com", EmailVerified: false, DisplayName: "Kim",
		},
		Now: repoNow,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), acc.ID)
	assert.Nil(t, acc.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRepo_UpsertAccountByOIDC_RollsBackOnFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, account_id FROM account_identities").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id"}))
	mock.ExpectQuery("INSERT INTO accounts").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec("INSERT INTO account_identities").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.UpsertAccountByOIDC(context.Background(), ports.UpsertOIDCInput{
		Info: domainauth.OIDCUserInfo{Provider: domainauth.IdentityProviderKakao, Subject: "k-1"},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRepo_UpsertAccountByOIDC_RequiresSubject(t *testing.T) {
	repo, _ := newMockRepo(t)
	_, err := repo.UpsertAccountByOIDC(context.Background(), ports.UpsertOIDCInput{})
	assert.True(t, apperrors.IsValidation(err))
}

func TestAuthRepo_CreateRefreshSession(t *testing.T) {
	repo, mock := newMockRepo(t)
	exp := repoNow.Add(30 * 24 * time.Hour)

	mock.ExpectQuery("INSERT INTO auth_refresh_sessions").
		WithArgs(5, "hash-1", "Mozilla", "10.0.0.1", exp, repoNow).
		WillReturnRows(sqlmock.NewRows(sessionCols).
			AddRow(11, 5, "hash-1", exp, nil, nil, "Mozilla", "10.0.0.1", repoNow))

	s, err := repo.CreateRefreshSession(context.Background(), ports.CreateRefreshSessionInput{
		AccountID: 5,
		TokenHash: "hash-1",
		ExpiresAt: exp,
		Client:    domainauth.ClientInfo{UserAgent: "Mozilla", IP: "10.0.0.1"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), s.ID)
	assert.True(t, s.IsActive(repoNow))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRepo_FindActiveRefreshSessionByHash(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("revoked_at IS NULL AND expires_at > \\$2").
		WithArgs("hash-1", repoNow).
		WillReturnRows(sqlmock.NewRows(sessionCols))

	s, err := repo.FindActiveRefreshSessionByHash(context.Background(), "hash-1")
	require.NoError(t, err)
	assert.Nil(t, s)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRepo_FindRefreshSessionByHash_Revoked(t *testing.T) {
	repo, mock := newMockRepo(t)
	revoked := repoNow.Add(-time.Hour)

	mock.ExpectQuery("FROM auth_refresh_sessions").
		WithArgs("hash-1").
		WillReturnRows(sqlmock.NewRows(sessionCols).
			AddRow(11, 5, "hash-1", repoNow.Add(time.Hour), revoked, 12, nil, nil, repoNow))

	s, err := repo.FindRefreshSessionByHash(context.Background(), "hash-1")
	require.NoError(t, err)
	require.NotNil(t, s)
	require.NotNil(t, s.ReplacedBySessionID)
	assert.Equal(t, int64(12), *s.ReplacedBySessionID)
	assert.False(t, s.IsActive(repoNow))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRepo_RotateRefreshSession(t *testing.T) {
	exp := repoNow.Add(30 * 24 * time.Hour)
	in := ports.RotateRefreshSessionInput{
		OldSessionID: 11,
		AccountID:    5,
		NewTokenHash: "hash-2",
		NewExpiresAt: exp,
		Now:          repoNow,
	}

	t.Run("success", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO auth_refresh_sessions").
			WithArgs(5, "hash-2", nil, nil, exp, repoNow).
			WillReturnRows(sqlmock.NewRows(sessionCols).
				AddRow(12, 5, "hash-2", exp, nil, nil, nil, nil, repoNow))
		mock.ExpectExec("UPDATE auth_refresh_sessions").
			WithArgs(11, repoNow, 12, 5).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		next, err := repo.RotateRefreshSession(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, int64(12), next.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already rotated rolls back", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO auth_refresh_sessions").
			WillReturnRows(sqlmock.NewRows(sessionCols).
				AddRow(12, 5, "hash-2", exp, nil, nil, nil, nil, repoNow))
		mock.ExpectExec("UPDATE auth_refresh_sessions").
			WithArgs(11, repoNow, 12, 5).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := repo.RotateRefreshSession(context.Background(), in)
		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthenticated(err))
		assert.ErrorIs(t, err, ErrSessionAlreadyRotated)
		require.NoError(t, mock.ExpectationsWereMet())
	})

}

func TestAuthRepo_RevokeAllRefreshSessions(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE auth_refresh_sessions").
		WithArgs(5, repoNow).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.RevokeAllRefreshSessions(context.Background(), 5, repoNow)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRepo_FindAccountForMe(t *testing.T) {
	cols := append(append([]string{}, accountCols...),
		"account_id", "nickname", "birth_date", "phone_number", "profile_image_url")
	birth := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)

	t.Run("with profile", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("LEFT JOIN user_profiles").
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(5, "USER", "ACTIVE", "a@b.com", "Kim", repoNow, repoNow, nil,
					5, "kim", birth, "010-1234-5678", nil))

		acc, profile, err := repo.FindAccountForMe(context.Background(), 5)
		require.NoError(t, err)
		require.NotNil(t, acc)
		require.NotNil(t, profile)
		assert.True(t, profile.IsComplete())
		assert.Nil(t, profile.ProfileImageURL)
	})

	t.Run("without profile", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("LEFT JOIN user_profiles").
			WithArgs(6).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(6, "SELLER", "PENDING", nil, nil, repoNow, repoNow, nil,
					nil, nil, nil, nil, nil))

		acc, profile, err := repo.FindAccountForMe(context.Background(), 6)
		require.NoError(t, err)
		require.NotNil(t, acc)
		assert.Equal(t, domainauth.AccountTypeSeller, acc.Type)
		assert.Nil(t, profile)
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("LEFT JOIN user_profiles").
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows(cols))

		acc, profile, err := repo.FindAccountForMe(context.Background(), 7)
		require.NoError(t, err)
		assert.Nil(t, acc)
		assert.Nil(t, profile)
	})
}

func TestAuthRepo_FindSellerCredentialByUsername(t *testing.T) {
	repo, mock := newMockRepo(t)
	cols := append([]string{
		"seller_account_id", "username", "password_hash", "password_updated_at", "last_login_at",
	}, accountCols...)

	mock.ExpectQuery("FROM seller_credentials c").
		WithArgs("shop1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(8, "shop1", "$argon2id$...", repoNow, nil,
				8, "SELLER", "PENDING", nil, "Shop", repoNow, repoNow, nil))

	c, err := repo.FindSellerCredentialByUsername(context.Background(), "shop1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, int64(8), c.SellerAccountID)
	assert.Equal(t, domainauth.AccountStatusPending, c.Account.Status)
	assert.Nil(t, c.LastLoginAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRepo_UpdateSellerLastLogin_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE seller_credentials").
		WithArgs(8, repoNow).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateSellerLastLogin(context.Background(), 8, repoNow)
	assert.True(t, apperrors.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRepo_ChangeSellerPassword(t *testing.T) {
	t.Run("commits hash and revocation together", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("SET password_hash = \\$3").
			WithArgs(8, repoNow, "new-hash").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE auth_refresh_sessions").
			WithArgs(8, repoNow).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		n, err := repo.ChangeSellerPassword(context.Background(), 8, "new-hash", repoNow)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("revoke failure rolls back the new hash", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("SET password_hash = \\$3").
			WithArgs(8, repoNow, "new-hash").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE auth_refresh_sessions").
			WithArgs(8, repoNow).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		n, err := repo.ChangeSellerPassword(context.Background(), 8, "new-hash", repoNow)
		require.Error(t, err)
		assert.Zero(t, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing credential revokes nothing", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("SET password_hash = \\$3").
			WithArgs(9, repoNow, "new-hash").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := repo.ChangeSellerPassword(context.Background(), 9, "new-hash", repoNow)
		assert.True(t, apperrors.IsNotFound(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuthRepo_AppendAuditLog(t *testing.T) {
	repo, mock := newMockRepo(t)
	ip := "10.0.0.1"

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(8, "SELLER_CREDENTIAL", 8, "SELLER_PASSWORD_CHANGED",
			nil, `{"passwordChanged":true}`, ip, nil, repoNow).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.AppendAuditLog(context.Background(), domainauth.AuditLogEntry{
		ActorAccountID: 8,
		TargetType:     domainauth.AuditTargetSellerCredential,
		TargetID:       8,
		Action:         domainauth.AuditActionSellerPasswordChanged,
		After:          map[string]any{"passwordChanged": true},
		IPAddress:      &ip,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
