package firebase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityFromClaims(t *testing.T) {
	id := IdentityFromClaims("uid-1", map[string]interface{}{
		"email":          "ada@example.com",
		"name":           "Ada Lovelace",
		"picture":        "https://img.example.com/ada.png",
		"email_verified": true,
	})
	assert.Equal(t, &Identity{
		UID:           "uid-1",
		Email:         "ada@example.com",
		EmailVerified: true,
		Name:          "Ada Lovelace",
		Picture:       "https://img.example.com/ada.png",
	}, id)

	id = IdentityFromClaims("uid-2", map[string]interface{}{"email": 12, "email_verified": "true"})
	assert.Equal(t, "", id.Email)
	assert.False(t, id.EmailVerified)
}

func TestInitFirebaseRequiresCredentials(t *testing.T) {
	_, err := InitFirebase(context.Background(), "")
	require.Error(t, err)

	_, err = InitFirebase(context.Background(), t.TempDir()+"/missing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
