package services

import (
	"context"
	"testing"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsernameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"Ada.Lovelace@example.com", "ada.lovelace"},
		{"grace+hopper@navy.mil", "gracehopper"},
		{"..dots..@x.io", "dots"},
		{"@nolocal.com", "user"},
		{"ünïcode@x.io", "ncode"},
		{"averyveryveryveryverylongusername12345@x.io", "averyveryveryveryverylongusern"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got := UsernameFromEmail(tt.email)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), maxUsernameLength)
		})
	}
}

func TestEnsureUserCreatesOnceAndSuffixesCollisions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user(t, "ada", false)

	u, created, err := h.userSvc.EnsureUser(ctx, models.IdentityProfile{
		ProviderUID: "user_2x",
		Email:       "Ada@Other.org",
		FullName:    " Ada  Byron ",
		ImageURL:    "https://img/ada.png",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ada1", u.Username)
	assert.Equal(t, "ada@other.org", u.Email)
	assert.Equal(t, "Ada  Byron", u.FullName)

	again, created, err := h.userSvc.EnsureUser(ctx, models.IdentityProfile{ProviderUID: "user_2x", Email: "ada@other.org"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)
}

func TestEnsureUserLinksVerifiedEmailToUnlinkedAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	legacy := &models.User{Username: "ada", FullName: "Ada", Email: "ada@example.com"}
	require.NoError(t, h.users.CreateUser(ctx, legacy))

	_, _, err := h.userSvc.EnsureUser(ctx, models.IdentityProfile{ProviderUID: "firebase-uid", Email: "ada@example.com"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, h.reload(t, legacy.ID).ProviderUID)

	u, created, err := h.userSvc.EnsureUser(ctx, models.IdentityProfile{
		ProviderUID:   "firebase-uid",
		Email:         "ada@example.com",
		EmailVerified: true,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, legacy.ID, u.ID)
	assert.Equal(t, "firebase-uid", h.reload(t, legacy.ID).ProviderUID)
}

func TestEnsureUserRefusesEmailOfLinkedAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	victim := h.user(t, "victim", false)

	for _, verified := range []bool{false, true} {
		_, _, err := h.userSvc.EnsureUser(ctx, models.IdentityProfile{
			ProviderUID:   "attacker-uid",
			Email:         "Victim@example.com",
			EmailVerified: verified,
		})
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, "uid_victim", h.reload(t, victim.ID).ProviderUID)

	_, err := h.users.GetUserByProviderUID(ctx, "attacker-uid")
	assert.Error(t, err)
}

func TestEnsureUserRequiresIdentityFields(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.userSvc.EnsureUser(context.Background(), models.IdentityProfile{Email: "x@y.z"})
	assert.ErrorIs(t, err, ErrInvalid)
	_, _, err = h.userSvc.EnsureUser(context.Background(), models.IdentityProfile{ProviderUID: "u"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRefreshIdentity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ada := h.user(t, "ada", false)

	u, err := h.userSvc.RefreshIdentity(ctx, models.IdentityProfile{
		ProviderUID: ada.ProviderUID,
		FullName:    "Ada King",
		ImageURL:    "https://img/new.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada King", u.FullName)
	assert.Equal(t, "ada@example.com", u.Email)

	created, err := h.userSvc.RefreshIdentity(ctx, models.IdentityProfile{ProviderUID: "late", Email: "late@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "late", created.Username)
}

func TestUpdateProfileAndProfileView(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ada := h.user(t, "ada", false)
	bob := h.user(t, "bob", false)

	name, bio, private := "Ada L.", "  maths  ", true
	u, err := h.userSvc.UpdateProfile(ctx, ada.ID, models.UpdateProfileRequest{FullName: &name, Bio: &bio, IsPrivate: &private})
	require.NoError(t, err)
	assert.Equal(t, "maths", u.Bio)
	assert.True(t, u.IsPrivate)

	blank := "  "
	_, err = h.userSvc.UpdateProfile(ctx, ada.ID, models.UpdateProfileRequest{FullName: &blank})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = h.graph.ToggleFollow(ctx, bob.ID, ada.ID)
	require.NoError(t, err)

	profile, err := h.userSvc.ProfileByUsername(ctx, bob.ID, "ADA")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, profile.ID)
	assert.False(t, profile.IsFollowing)
	assert.True(t, profile.FollowRequestPending)

	_, err = h.userSvc.Profile(ctx, bob.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

type racingUsers struct {
	repositories.UserRepository
}

// UpdateUserFields commits a follow just before the profile write lands.
func (r racingUsers) UpdateUserFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	if err := r.AdjustCounter(ctx, id, repositories.CounterFollowers, 1); err != nil {
		return err
	}
	return r.UserRepository.UpdateUserFields(ctx, id, fields)
}

func TestUpdateProfileKeepsConcurrentCounters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ada := h.user(t, "ada", false)

	svc := NewUserService(racingUsers{h.users}, h.graph)
	bio := "maths"
	u, err := svc.UpdateProfile(ctx, ada.ID, models.UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "maths", u.Bio)
	assert.Equal(t, 1, u.Followers)
	assert.Equal(t, 1, h.reload(t, ada.ID).Followers)

	_, err = svc.UpdateProfile(ctx, 999, models.UpdateProfileRequest{Bio: &bio})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	h := newHarness(t)
	h.user(t, "ada", false)
	h.user(t, "adam", false)
	h.user(t, "bob", false)

	found, err := h.userSvc.Search(context.Background(), "ad")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = h.userSvc.Search(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, found)
}
