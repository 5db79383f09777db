package token_test

import (
	"testing"
	"time"

	"taskapi/internal/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	manager := token.NewManager("test-secret", time.Hour)
	userID := uuid.New()

	signed, err := manager.Issue(userID)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	parsedID, err := manager.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, parsedID)
}

func TestVerify_Expired(t *testing.T) {
	manager := token.NewManager("test-secret", -time.Hour)

	signed, err := manager.Issue(uuid.New())
	require.NoError(t, err)

	_, err = manager.Verify(signed)
	assert.ErrorIs(t, err, token.ErrExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := token.NewManager("secret-one", time.Hour)
	verifier := token.NewManager("secret-two", time.Hour)

	signed, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.ErrorIs(t, err, token.ErrInvalidSignature)
}

func TestVerify_Malformed(t *testing.T) {
	manager := token.NewManager("test-secret", time.Hour)

	tests := []struct {
		name string
		raw  string
	}{
		{"мусор", "not-a-token"},
		{"пустая строка", ""},
		{"обрезанный токен", "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.Verify(tt.raw)
			assert.ErrorIs(t, err, token.ErrMalformed)
		})
	}
}

func TestNewManager_DefaultTTL(t *testing.T) {
	// нулевой TTL не должен давать заведомо истёкшие токены
	manager := token.NewManager("test-secret", 0)

	signed, err := manager.Issue(uuid.New())
	require.NoError(t, err)

	_, err = manager.Verify(signed)
	assert.NoError(t, err)
}
