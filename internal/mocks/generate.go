// Package mocks provides gomock implementations of the auth ports for unit tests.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockCredentialStore(ctrl)
//	store.EXPECT().FindActiveRefreshSessionByHash(gomock.Any(), hash).Return(nil, nil)
package mocks

// CredentialStore: identity upsert, refresh sessions, seller credentials, audit log.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=credential_store_mock.go github.com/caquick/caquick-api/internal/ports CredentialStore

// IdentityClient: BuildAuthorizationURL, ExchangeCode, RedirectURI.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_client_mock.go github.com/caquick/caquick-api/internal/ports IdentityClient

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=access_token_codec_mock.go github.com/caquick/caquick-api/internal/ports AccessTokenCodec
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=password_hasher_mock.go github.com/caquick/caquick-api/internal/ports PasswordHasher
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=login_throttle_mock.go github.com/caquick/caquick-api/internal/ports LoginThrottle
