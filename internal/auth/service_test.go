package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ilan2004/Ev-wheels-sub003/internal/config"
	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
	"github.com/ilan2004/Ev-wheels-sub003/internal/store"
	"github.com/ilan2004/Ev-wheels-sub003/internal/store/memstore"
)

func TestHashPasswordUsesBcrypt(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	// Stored hashes must be salted bcrypt, never a bare digest of the
	// password, so equal passwords produce different hashes.
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse battery staple")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong")))

	second, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, hash, second)
}

func TestLoginVerifiesBcryptHash(t *testing.T) {
	users := memstore.New()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	users.PutUser(store.User{
		ID:           uuid.New(),
		Email:        "tech@example.com",
		PasswordHash: hash,
		Role:         rbac.RoleTechnician,
	})

	// No redis client: every case below must fail credential checking
	// before any session state is touched.
	svc := NewAuthService(nil, nil, users, config.AuthConfig{})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "tech@example.com", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "ghost@example.com", "s3cret")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("legacy digest hash no longer verifies", func(t *testing.T) {
		users.PutUser(store.User{
			ID:           uuid.New(),
			Email:        "old@example.com",
			PasswordHash: "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8",
			Role:         rbac.RoleTechnician,
		})
		_, _, err := svc.Login(context.Background(), "old@example.com", "password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
