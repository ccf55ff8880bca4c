package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/spotlight/backend/internal/models"
	"gorm.io/gorm"
)

// User counter columns
const (
	CounterFollowers = "followers"
	CounterFollowing = "following"
	CounterPosts     = "posts"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error)
	GetUserByProviderUID(ctx context.Context, providerUID string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateUserFields(ctx context.Context, id uint, fields map[string]interface{}) error
	LinkProviderUID(ctx context.Context, id uint, providerUID string) (bool, error)
	DeleteUser(ctx context.Context, id uint) error
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
	ListUsers(ctx context.Context, limit int) ([]models.User, error)
	PrivateUserIDs(ctx context.Context) ([]uint, error)
	AdjustCounter(ctx context.Context, id uint, column string, delta int) error
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser creates a new user
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return conn(ctx, r.db).Create(user).Error
}

// GetUserByID retrieves a user by ID
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUsersByIDs retrieves users keyed by ID; missing IDs are simply absent
func (r *PostgresUserRepository) GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	result := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []models.User
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// GetUserByEmail retrieves a user by email address
func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUserByProviderUID retrieves a user by identity provider UID
func (r *PostgresUserRepository) GetUserByProviderUID(ctx context.Context, providerUID string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).Where("provider_uid = ?", providerUID).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// UsernameExists reports whether a username is taken
func (r *PostgresUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// Columns UpdateUserFields may write. Counters only move through AdjustCounter.
var updatableUserColumns = map[string]bool{
	"full_name":  true,
	"bio":        true,
	"is_private": true,
	"email":      true,
	"image_url":  true,
}

// UpdateUserFields writes only the given profile columns of user id
func (r *PostgresUserRepository) UpdateUserFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	for column := range fields {
		if !updatableUserColumns[column] {
			return fmt.Errorf("user column %q is not updatable", column)
		}
	}
	res := conn(ctx, r.db).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkProviderUID attaches an identity to a user that has none yet. It
// reports false when the user is already linked.
func (r *PostgresUserRepository) LinkProviderUID(ctx context.Context, id uint, providerUID string) (bool, error) {
	res := conn(ctx, r.db).Model(&models.User{}).
		Where("id = ? AND (provider_uid = '' OR provider_uid IS NULL)", id).
		Update("provider_uid", providerUID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteUser deletes a user by ID
func (r *PostgresUserRepository) DeleteUser(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchUsers searches users by username or full name (case-insensitive)
func (r *PostgresUserRepository) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	var users []models.User
	pattern := "%" + query + "%"
	err := conn(ctx, r.db).
		Where("LOWER(username) LIKE LOWER(?) OR LOWER(full_name) LIKE LOWER(?)", pattern, pattern).
		Order("followers DESC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// ListUsers returns up to limit users, oldest first
func (r *PostgresUserRepository) ListUsers(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := conn(ctx, r.db).Order("id ASC").Limit(limit).Find(&users).Error
	return users, err
}

// PrivateUserIDs returns the IDs of all private accounts
func (r *PostgresUserRepository) PrivateUserIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := conn(ctx, r.db).Model(&models.User{}).Where("is_private = ?", true).Pluck("id", &ids).Error
	return ids, err
}

// AdjustCounter adds delta to one of the denormalised counters, never below zero
func (r *PostgresUserRepository) AdjustCounter(ctx context.Context, id uint, column string, delta int) error {
	switch column {
	case CounterFollowers, CounterFollowing, CounterPosts:
	default:
		return fmt.Errorf("unknown user counter %q", column)
	}
	expr := gorm.Expr(fmt.Sprintf("CASE WHEN %s + ? < 0 THEN 0 ELSE %s + ? END", column, column), delta, delta)
	return conn(ctx, r.db).Model(&models.User{}).Where("id = ?", id).UpdateColumn(column, expr).Error
}
