package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
)

var jwtService = NewJWTService("test-signing-key", "test-issuer")

func Test_GenerateAndValidate(t *testing.T) {
	userID := id.UserID(uuid.New())
	token, err := jwtService.GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)

	mw, err := NewJWTServiceAdapter(jwtService).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), mw.UserID)
	assert.Equal(t, claims.ID, mw.JTI)
}

func Test_ValidateToken_Rejections(t *testing.T) {
	userID := id.UserID(uuid.New())

	_, err := jwtService.ValidateToken("invalid-token-string")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	expired, err := jwtService.GenerateAccessToken(userID, -time.Hour)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(expired)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token has expired")

	foreign, err := NewJWTService("test-signing-key", "someone-else").GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(foreign)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized), "issuer must match")

	otherKey, err := NewJWTService("another-key", "test-issuer").GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(otherKey)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_SubjectFallback(t *testing.T) {
	userID := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    "test-issuer",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}
