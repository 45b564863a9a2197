package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrChallengeNotFound = errors.New("challenge not found")

type Challenge struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text;not null"`
	Type        string `gorm:"not null"` // "quiz" or "task"
	Points      int    `gorm:"not null;check:chk_challenges_points,points > 0"`
	CreatedBy   uint   `gorm:"not null;index"`
	Creator     User   `gorm:"foreignKey:CreatedBy"`
	CreatedAt   time.Time
}

type ChallengeDAO struct {
	db *gorm.DB
}

func NewChallengeDAO(db *gorm.DB) *ChallengeDAO {
	return &ChallengeDAO{
		db: db,
	}
}

func (d *ChallengeDAO) Insert(ctx context.Context, challenge Challenge) (Challenge, error) {
	result := d.db.WithContext(ctx).Omit("Creator").Create(&challenge)
	if result.Error != nil {
		return Challenge{}, result.Error
	}

	return challenge, nil
}

func (d *ChallengeDAO) FindByID(ctx context.Context, id uint) (Challenge, error) {
	var challenge Challenge

	result := d.db.WithContext(ctx).First(&challenge, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Challenge{}, ErrChallengeNotFound
		}

		return Challenge{}, result.Error
	}

	return challenge, nil
}

func (d *ChallengeDAO) FindAll(ctx context.Context) ([]Challenge, error) {
	var challenges []Challenge

	result := d.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&challenges)
	if result.Error != nil {
		return nil, result.Error
	}

	return challenges, nil
}
