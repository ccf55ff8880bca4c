package repositories

import (
	"context"

	"github.com/anonto42/spotlight/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRequestRepository defines the interface for follow request operations
type FollowRequestRepository interface {
	UpsertPending(ctx context.Context, requesterID, targetID uint) (*models.FollowRequest, error)
	GetByID(ctx context.Context, id uint) (*models.FollowRequest, error)
	GetPending(ctx context.Context, requesterID, targetID uint) (*models.FollowRequest, error)
	ListPendingForTarget(ctx context.Context, targetID uint) ([]models.FollowRequest, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	Delete(ctx context.Context, id uint) error
	DeleteByUserID(ctx context.Context, userID uint) error
}

type postgresFollowRequestRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRequestRepository creates a new follow request repository
func NewPostgresFollowRequestRepository(db *gorm.DB) FollowRequestRepository {
	return &postgresFollowRequestRepository{db: db}
}

// UpsertPending creates a pending request, reopening a previously answered one
func (r *postgresFollowRequestRepository) UpsertPending(ctx context.Context, requesterID, targetID uint) (*models.FollowRequest, error) {
	req := &models.FollowRequest{
		RequesterID: requesterID,
		TargetID:    targetID,
		Status:      models.FollowRequestPending,
	}
	db := conn(ctx, r.db)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "requester_id"}, {Name: "target_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"status": models.FollowRequestPending}),
	}).Create(req).Error
	if err != nil {
		return nil, err
	}
	// ID is not reliably returned on the conflict path, reload
	var stored models.FollowRequest
	if err := db.Where("requester_id = ? AND target_id = ?", requesterID, targetID).First(&stored).Error; err != nil {
		return nil, notFound(err)
	}
	return &stored, nil
}

func (r *postgresFollowRequestRepository) GetByID(ctx context.Context, id uint) (*models.FollowRequest, error) {
	var req models.FollowRequest
	if err := conn(ctx, r.db).First(&req, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (r *postgresFollowRequestRepository) GetPending(ctx context.Context, requesterID, targetID uint) (*models.FollowRequest, error) {
	var req models.FollowRequest
	err := conn(ctx, r.db).
		Where("requester_id = ? AND target_id = ? AND status = ?", requesterID, targetID, models.FollowRequestPending).
		First(&req).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (r *postgresFollowRequestRepository) ListPendingForTarget(ctx context.Context, targetID uint) ([]models.FollowRequest, error) {
	var reqs []models.FollowRequest
	err := conn(ctx, r.db).
		Where("target_id = ? AND status = ?", targetID, models.FollowRequestPending).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *postgresFollowRequestRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return conn(ctx, r.db).Model(&models.FollowRequest{}).Where("id = ?", id).Update("status", status).Error
}

func (r *postgresFollowRequestRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.FollowRequest{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresFollowRequestRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	return conn(ctx, r.db).Where("requester_id = ? OR target_id = ?", userID, userID).Delete(&models.FollowRequest{}).Error
}
