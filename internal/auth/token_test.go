package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/fintrack-be/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "fintrack", time.Hour)
	cred := models.Credential{UID: uuid.New(), Email: "a@example.com", DisplayName: "Ann"}

	token, err := tm.Generate(cred)
	require.NoError(t, err)

	claims, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, cred.UID.String(), claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "Ann", claims.Name)
}

func TestTokenRejections(t *testing.T) {
	tm := NewTokenManager("secret", "fintrack", time.Hour)
	cred := models.Credential{UID: uuid.New()}

	other := NewTokenManager("other-secret", "fintrack", time.Hour)
	forged, err := other.Generate(cred)
	require.NoError(t, err)
	_, err = tm.Parse(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewTokenManager("secret", "someone-else", time.Hour)
	token, err := wrongIssuer.Generate(cred)
	require.NoError(t, err)
	_, err = tm.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenManager("secret", "fintrack", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err = expired.Generate(cred)
	require.NoError(t, err)
	_, err = tm.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tm.Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrWrongPassword)
}
