package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"projectflow/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MemberStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewMemberStore(db *gorm.DB, logger *zap.Logger) *MemberStore {
	return &MemberStore{db: db, logger: logger}
}

func (r *MemberStore) Get(ctx context.Context, id uint) (*models.Member, error) {
	var m models.Member
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("member %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &m, nil
}

func (r *MemberStore) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	var m models.Member
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("member %q: %w", email, ErrNotFound)
		}
		return nil, err
	}
	return &m, nil
}

func (r *MemberStore) List(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	if err := r.db.WithContext(ctx).Order("name asc, id asc").Find(&members).Error; err != nil {
		r.logger.Error("Failed to list members", zap.Error(err))
		return nil, err
	}
	return members, nil
}

func (r *MemberStore) Put(ctx context.Context, m *models.Member) error {
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("member %q: %w", m.Email, ErrDuplicate)
		}
		r.logger.Error("Failed to save member", zap.String("email", m.Email), zap.Error(err))
		return err
	}
	return nil
}

func (r *MemberStore) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Member{}, id)
	if res.Error != nil {
		r.logger.Error("Failed to delete member", zap.Uint("id", id), zap.Error(res.Error))
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("member %d: %w", id, ErrNotFound)
	}
	return nil
}
