package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Badge struct {
	ID       uint      `gorm:"primaryKey"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_badges_user_name"`
	User     User      `gorm:"foreignKey:UserID"`
	Name     string    `gorm:"size:100;not null;uniqueIndex:idx_badges_user_name"`
	EarnedAt time.Time `gorm:"not null;autoCreateTime"`
}

type BadgeDAO struct {
	db *gorm.DB
}

func NewBadgeDAO(db *gorm.DB) *BadgeDAO {
	return &BadgeDAO{
		db: db,
	}
}

func (d *BadgeDAO) FindByUserID(ctx context.Context, userID uint) ([]Badge, error) {
	var badges []Badge

	result := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Order("id ASC").
		Find(&badges)
	if result.Error != nil {
		return nil, result.Error
	}

	return badges, nil
}
