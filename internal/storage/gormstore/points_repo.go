package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jkaninda/ligi/internal/league"
)

// PointsRepository manages the points log and the derived point totals.
type PointsRepository struct {
	db *gorm.DB
}

// NewPointsRepository creates a PointsRepository.
func NewPointsRepository(db *gorm.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// Award inserts the log entry and increments the student's and their
// team's point totals. The three writes commit or roll back together.
func (r *PointsRepository) Award(ctx context.Context, e *league.PointsEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student StudentModel
		err := tx.First(&student, "id = ?", e.StudentID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return league.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("loading student %d: %w", e.StudentID, err)
		}

		m := PointsLogModel{
			StudentID: e.StudentID,
			Points:    e.Points,
			Reason:    e.Reason,
			Date:      e.Date,
			Approved:  e.Approved,
		}
		// Select forces approved to be written even when false; the column
		// default would otherwise override it.
		if err := tx.Select("StudentID", "Points", "Reason", "Date", "Approved", "CreatedAt").Create(&m).Error; err != nil {
			return fmt.Errorf("logging points for student %d: %w", e.StudentID, err)
		}
		e.ID = m.ID

		if err := tx.Model(&StudentModel{}).
			Where("id = ?", e.StudentID).
			UpdateColumn("points", gorm.Expr("points + ?", e.Points)).Error; err != nil {
			return fmt.Errorf("updating student points: %w", err)
		}
		if err := tx.Model(&TeamModel{}).
			Where("id = ?", student.TeamID).
			UpdateColumn("points", gorm.Expr("points + ?", e.Points)).Error; err != nil {
			return fmt.Errorf("updating team points: %w", err)
		}
		return nil
	})
}

// PendingApprovals counts unapproved points log entries.
func (r *PointsRepository) PendingApprovals(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&PointsLogModel{}).
		Where("approved = ?", false).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting pending approvals: %w", err)
	}
	return n, nil
}
