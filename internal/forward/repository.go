package forward

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"sms-relay-hub/internal/database"
	"sms-relay-hub/internal/forward/model"
)

type Repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListEnabled(ctx context.Context) ([]*model.ForwardSetting, error) {
	var settings []*model.ForwardSetting
	err := r.db.DB.WithContext(ctx).
		Where("enabled = ?", true).
		Find(&settings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled forward settings: %w", err)
	}
	return settings, nil
}

// GetOrCreate returns the platform's setting, creating the default row on
// first access. A concurrent creator losing the unique-index race falls back
// to re-reading the winner's row.
func (r *Repository) GetOrCreate(ctx context.Context, platform model.Platform) (*model.ForwardSetting, error) {
	var setting model.ForwardSetting
	err := r.db.DB.WithContext(ctx).
		Where("platform = ?", platform).
		First(&setting).Error
	if err == nil {
		return &setting, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load forward setting: %w", err)
	}

	created := model.NewDefaultSetting(platform)
	if err := r.db.DB.WithContext(ctx).Create(created).Error; err != nil {
		if isUniqueViolation(err) {
			err = r.db.DB.WithContext(ctx).
				Where("platform = ?", platform).
				First(&setting).Error
			if err != nil {
				return nil, fmt.Errorf("failed to re-read forward setting: %w", err)
			}
			return &setting, nil
		}
		return nil, fmt.Errorf("failed to create forward setting: %w", err)
	}
	return created, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// EnsureDefaults materializes the default row for every supported platform.
func (r *Repository) EnsureDefaults(ctx context.Context) error {
	for _, platform := range model.Platforms {
		if _, err := r.GetOrCreate(ctx, platform); err != nil {
			return err
		}
	}
	return nil
}

// RecordSuccess atomically bumps the success counter and refreshes the
// last-forward timestamp. SQL-level increment so concurrent forwarders never
// lose updates.
func (r *Repository) RecordSuccess(ctx context.Context, id uuid.UUID) error {
	return r.db.DB.WithContext(ctx).
		Model(&model.ForwardSetting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"forward_count":   gorm.Expr("forward_count + 1"),
			"last_forward_at": time.Now(),
			"updated_at":      time.Now(),
		}).Error
}

func (r *Repository) RecordFailure(ctx context.Context, id uuid.UUID) error {
	return r.db.DB.WithContext(ctx).
		Model(&model.ForwardSetting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"fail_count": gorm.Expr("fail_count + 1"),
			"updated_at": time.Now(),
		}).Error
}
