package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/sales-backoffice/internal/model"
)

func TestParse_RoundTrip(t *testing.T) {
	p := NewParser("secret")
	want := model.Principal{UserID: uuid.New(), Username: "sato", Role: model.UserRoleStaff}

	token, err := p.Issue(want, time.Hour)
	require.NoError(t, err)

	got, err := p.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParse_Rejects(t *testing.T) {
	p := NewParser("secret")
	principal := model.Principal{UserID: uuid.New(), Username: "sato", Role: model.UserRoleAdmin}

	expired, err := p.Issue(principal, -time.Minute)
	require.NoError(t, err)
	foreign, err := NewParser("other").Issue(principal, time.Hour)
	require.NoError(t, err)
	badRole, err := p.Issue(model.Principal{UserID: uuid.New(), Role: "root"}, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": uuid.NewString(), "role": "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":   expired,
		"signature": foreign,
		"role":      badRole,
		"alg none":  none,
		"malformed": "not-a-token",
	} {
		_, err := p.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}
