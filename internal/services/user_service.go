package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/repositories"
)

const (
	maxUsernameLength = 30
	maxUsernameTries  = 1000
	searchLimit       = 20
)

// UserService owns profiles and the mirror of identity provider accounts
type UserService struct {
	users repositories.UserRepository
	graph *GraphService
}

// NewUserService creates a new UserService
func NewUserService(users repositories.UserRepository, graph *GraphService) *UserService {
	return &UserService{users: users, graph: graph}
}

// Me returns the caller's own profile
func (s *UserService) Me(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "user")
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of req to the caller's profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req models.UpdateProfileRequest) (*models.User, error) {
	fields := map[string]interface{}{}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, invalid("full_name cannot be blank")
		}
		fields["full_name"] = name
	}
	if req.Bio != nil {
		fields["bio"] = strings.TrimSpace(*req.Bio)
	}
	if req.IsPrivate != nil {
		fields["is_private"] = *req.IsPrivate
	}
	if err := s.users.UpdateUserFields(ctx, userID, fields); err != nil {
		return nil, notFoundAs(fmt.Errorf("update profile: %w", err), "user")
	}
	return s.Me(ctx, userID)
}

// Profile returns userID's profile with the viewer's follow state
func (s *UserService) Profile(ctx context.Context, viewerID, userID uint) (*models.ProfileResponse, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "user")
	}
	return s.profileOf(ctx, viewerID, user)
}

// ProfileByUsername is Profile keyed by username
func (s *UserService) ProfileByUsername(ctx context.Context, viewerID uint, username string) (*models.ProfileResponse, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.ToLower(username))
	if err != nil {
		return nil, notFoundAs(err, "user")
	}
	return s.profileOf(ctx, viewerID, user)
}

func (s *UserService) profileOf(ctx context.Context, viewerID uint, user *models.User) (*models.ProfileResponse, error) {
	status, err := s.graph.Status(ctx, viewerID, user.ID)
	if err != nil {
		return nil, err
	}
	return &models.ProfileResponse{
		User:                 *user,
		IsFollowing:          status.Following,
		FollowRequestPending: status.Requested,
	}, nil
}

// Search matches username or full name, most followed first
func (s *UserService) Search(ctx context.Context, query string) ([]models.UserCompact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.UserCompact{}, nil
	}
	users, err := s.users.SearchUsers(ctx, query, searchLimit)
	if err != nil {
		return nil, err
	}
	return compact(users), nil
}

// EnsureUser returns the user mirrored for the identity, creating it on first
// sight. An unlinked account with the same email is linked only when the
// provider has verified that email; any other email clash is ErrConflict.
func (s *UserService) EnsureUser(ctx context.Context, p models.IdentityProfile) (*models.User, bool, error) {
	if p.ProviderUID == "" {
		return nil, false, invalid("identity has no user id")
	}
	user, err := s.users.GetUserByProviderUID(ctx, p.ProviderUID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, err
	}

	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" {
		return nil, false, invalid("identity has no email address")
	}

	user, err = s.users.GetUserByEmail(ctx, email)
	if err == nil {
		if err := s.link(ctx, user, p); err != nil {
			return nil, false, err
		}
		return user, false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, err
	}

	username, err := s.availableUsername(ctx, email)
	if err != nil {
		return nil, false, err
	}
	user = &models.User{
		Username:    username,
		FullName:    strings.TrimSpace(p.FullName),
		Email:       email,
		ImageURL:    p.ImageURL,
		ProviderUID: p.ProviderUID,
	}
	if user.FullName == "" {
		user.FullName = username
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return user, true, nil
}

// RefreshIdentity copies provider profile fields onto the mirrored user,
// creating it if the created event was missed
func (s *UserService) RefreshIdentity(ctx context.Context, p models.IdentityProfile) (*models.User, error) {
	user, err := s.users.GetUserByProviderUID(ctx, p.ProviderUID)
	if errors.Is(err, repositories.ErrNotFound) {
		user, _, err = s.EnsureUser(ctx, p)
		return user, err
	}
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if email := strings.ToLower(strings.TrimSpace(p.Email)); email != "" {
		fields["email"] = email
	}
	if name := strings.TrimSpace(p.FullName); name != "" {
		fields["full_name"] = name
	}
	if p.ImageURL != "" {
		fields["image_url"] = p.ImageURL
	}
	if err := s.users.UpdateUserFields(ctx, user.ID, fields); err != nil {
		return nil, notFoundAs(fmt.Errorf("refresh user: %w", err), "user")
	}
	return s.Me(ctx, user.ID)
}

func (s *UserService) link(ctx context.Context, user *models.User, p models.IdentityProfile) error {
	if !p.EmailVerified {
		return fmt.Errorf("email %s is already registered: %w", user.Email, ErrConflict)
	}
	if user.ProviderUID != "" {
		return fmt.Errorf("email %s belongs to another identity: %w", user.Email, ErrConflict)
	}
	linked, err := s.users.LinkProviderUID(ctx, user.ID, p.ProviderUID)
	if err != nil {
		return fmt.Errorf("link identity: %w", err)
	}
	if !linked {
		return fmt.Errorf("email %s belongs to another identity: %w", user.Email, ErrConflict)
	}
	user.ProviderUID = p.ProviderUID
	return nil
}

// availableUsername derives a username from the email local part, adding a
// numeric suffix until it is free
func (s *UserService) availableUsername(ctx context.Context, email string) (string, error) {
	base := UsernameFromEmail(email)
	for i := 0; i < maxUsernameTries; i++ {
		candidate := base
		if i > 0 {
			suffix := strconv.Itoa(i)
			if len(base)+len(suffix) > maxUsernameLength {
				candidate = base[:maxUsernameLength-len(suffix)]
			}
			candidate += suffix
		}
		taken, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free username for %q: %w", base, ErrConflict)
}

// UsernameFromEmail lowercases the local part of email and keeps letters,
// digits, dots and underscores
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	var b strings.Builder
	for _, r := range local {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_') {
			b.WriteRune(r)
		}
	}
	name := strings.Trim(b.String(), ".")
	if name == "" {
		name = "user"
	}
	if len(name) > maxUsernameLength {
		name = name[:maxUsernameLength]
	}
	return name
}
