package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kanban/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CodeStore keeps one row per email in verification_codes.
type CodeStore struct {
	db *gorm.DB
}

func NewCodeStore(db *gorm.DB) *CodeStore {
	return &CodeStore{db: db}
}

// Put upserts the row so a new code replaces the previous one in a single statement.
func (s *CodeStore) Put(ctx context.Context, v *domain.VerificationCode) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "created_at", "expires_at"}),
	}).Create(v).Error
	if err != nil {
		return fmt.Errorf("put login code: %w", err)
	}
	return nil
}

func (s *CodeStore) Get(ctx context.Context, email string) (*domain.VerificationCode, error) {
	var v domain.VerificationCode
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("login code: %w", domain.ErrCodeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get login code: %w", err)
	}
	return &v, nil
}

func (s *CodeStore) Delete(ctx context.Context, email string) error {
	if err := s.db.WithContext(ctx).Where("email = ?", email).Delete(&domain.VerificationCode{}).Error; err != nil {
		return fmt.Errorf("delete login code: %w", err)
	}
	return nil
}

// Take deletes the row only while it still carries code.
func (s *CodeStore) Take(ctx context.Context, email, code string) error {
	res := s.db.WithContext(ctx).
		Where("email = ? AND code = ?", email, code).
		Delete(&domain.VerificationCode{})
	if res.Error != nil {
		return fmt.Errorf("take login code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("login code already used or replaced: %w", domain.ErrCodeNotFound)
	}
	return nil
}

func (s *CodeStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&domain.VerificationCode{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge login codes: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}
