// Package accesstoken signs and verifies the short-lived HS256 access JWT.
package accesstoken

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/caquick/caquick-api/internal/errors"
	"github.com/caquick/caquick-api/internal/ports"
)

// TokenType is the typ claim carried by every access token.
const TokenType = "access"

// DefaultTTL is used when Config.TTL is zero.
const DefaultTTL = 900 * time.Second

const invalidTokenMessage = "Invalid access token"

var (
	errWrongType  = errors.New("token type is not access")
	errBadSubject = errors.New("subject is not a positive account id")
)

// Claims is the wire shape of the access token.
type Claims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Config configures a Codec.
type Config struct {
	Secret []byte
	TTL    time.Duration
	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
}

// Codec implements ports.AccessTokenCodec.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

var _ ports.AccessTokenCodec = (*Codec)(nil)

// New validates cfg and returns a Codec.
func New(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, apperrors.Configuration("JWT_ACCESS_SECRET is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Codec{
		secret: cfg.Secret,
		ttl:    ttl,
		now:    now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(now),
		),
	}, nil
}

// TTL returns the configured access-token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs an access token for accountID.
func (c *Codec) Issue(accountID int64) (ports.IssuedToken, error) {
	if accountID <= 0 {
		return ports.IssuedToken{}, apperrors.Internal("cannot issue access token without an account id")
	}
	now := c.now()
	exp := now.Add(c.ttl)
	claims := Claims{
		Type: TokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return ports.IssuedToken{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "sign access token")
	}
	// NumericDate truncates to seconds; report what the token actually says.
	return ports.IssuedToken{Token: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify checks signature, expiry, and typ, and returns the parsed claims.
// Every failure is an unauthenticated error with the same public message.
func (c *Codec) Verify(token string) (ports.AccessClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return ports.AccessClaims{}, apperrors.Unauthenticated(invalidTokenMessage)
	}

	var claims Claims
	if _, err := c.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}); err != nil {
		return ports.AccessClaims{}, invalid(err)
	}
	if claims.Type != TokenType {
		return ports.AccessClaims{}, invalid(errWrongType)
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return ports.AccessClaims{}, invalid(errBadSubject)
	}

	out := ports.AccessClaims{AccountID: id, TokenID: claims.ID}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func invalid(cause error) error {
	return apperrors.Wrap(cause, apperrors.ErrCodeUnauthenticated, invalidTokenMessage)
}
