package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSubmissionExists = errors.New("challenge already submitted")

type Submission struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_submissions_user_challenge"`
	User        User      `gorm:"foreignKey:UserID"`
	ChallengeID uint      `gorm:"not null;uniqueIndex:idx_submissions_user_challenge"`
	Challenge   Challenge `gorm:"foreignKey:ChallengeID"`
	Proof       string    `gorm:"type:text"`
	SubmittedAt time.Time `gorm:"not null;autoCreateTime"`
}

// AccrueFunc computes the new point total and the badge names to award from
// the locked user's current points, the challenge reward and the badges the
// user already holds.
type AccrueFunc func(points, reward int, held map[string]bool) (newPoints int, awarded []string)

type AccrualOutcome struct {
	Submission Submission
	User       User
	Reward     int
	Badges     []Badge
}

type SubmissionDAO struct {
	db *gorm.DB
}

func NewSubmissionDAO(db *gorm.DB) *SubmissionDAO {
	return &SubmissionDAO{
		db: db,
	}
}

// Accrue records a submission and applies its reward in one transaction.
// The user row is locked first so concurrent submissions by the same user
// are serialized; the unique index on (user_id, challenge_id) backs that up.
func (d *SubmissionDAO) Accrue(ctx context.Context, userID, challengeID uint, proof string, fn AccrueFunc) (AccrualOutcome, error) {
	var out AccrualOutcome

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user -> %w", err)
		}

		var challenge Challenge
		if err := tx.First(&challenge, challengeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChallengeNotFound
			}
			return fmt.Errorf("find challenge -> %w", err)
		}

		var existing int64
		if err := tx.Model(&Submission{}).
			Where("user_id = ? AND challenge_id = ?", userID, challengeID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("count submissions -> %w", err)
		}
		if existing > 0 {
			return ErrSubmissionExists
		}

		var heldNames []string
		if err := tx.Model(&Badge{}).Where("user_id = ?", userID).Pluck("name", &heldNames).Error; err != nil {
			return fmt.Errorf("pluck badges -> %w", err)
		}
		held := make(map[string]bool, len(heldNames))
		for _, name := range heldNames {
			held[name] = true
		}

		newPoints, awarded := fn(user.Points, challenge.Points, held)

		submission := Submission{
			UserID:      userID,
			ChallengeID: challengeID,
			Proof:       proof,
		}
		if err := tx.Omit("User", "Challenge").Create(&submission).Error; err != nil {
			if isUniqueViolation(err, "idx_submissions_user_challenge") {
				return ErrSubmissionExists
			}
			return fmt.Errorf("insert submission -> %w", err)
		}

		if err := tx.Model(&user).Update("points", newPoints).Error; err != nil {
			return fmt.Errorf("update points -> %w", err)
		}
		user.Points = newPoints

		badges := make([]Badge, 0, len(awarded))
		for _, name := range awarded {
			badge := Badge{UserID: userID, Name: name}
			result := tx.Omit("User").Clauses(clause.OnConflict{DoNothing: true}).Create(&badge)
			if result.Error != nil {
				return fmt.Errorf("insert badge %q -> %w", name, result.Error)
			}
			if result.RowsAffected == 1 {
				badges = append(badges, badge)
			}
		}

		out = AccrualOutcome{
			Submission: submission,
			User:       user,
			Reward:     challenge.Points,
			Badges:     badges,
		}

		return nil
	})
	if err != nil {
		return AccrualOutcome{}, err
	}

	return out, nil
}
