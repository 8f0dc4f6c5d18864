package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/jkaninda/ligi/internal/league"
)

// FollowUpRepository records servant follow-up notes.
type FollowUpRepository struct {
	db *gorm.DB
}

// NewFollowUpRepository creates a FollowUpRepository.
func NewFollowUpRepository(db *gorm.DB) *FollowUpRepository {
	return &FollowUpRepository{db: db}
}

// Create inserts a follow-up note after checking the student exists.
func (r *FollowUpRepository) Create(ctx context.Context, f *league.FollowUp) error {
	if err := studentExists(ctx, r.db, f.StudentID); err != nil {
		return err
	}
	m := FollowUpModel{
		StudentID:  f.StudentID,
		ServantUID: f.ServantUID,
		Date:       f.Date,
		Notes:      f.Notes,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("creating follow-up for student %d: %w", f.StudentID, err)
	}
	f.ID = m.ID
	return nil
}

// ListByStudent returns a student's follow-up notes, newest first.
func (r *FollowUpRepository) ListByStudent(ctx context.Context, studentID int64) ([]league.FollowUp, error) {
	var models []FollowUpModel
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("date DESC, id DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing follow-ups for student %d: %w", studentID, err)
	}
	notes := make([]league.FollowUp, 0, len(models))
	for _, m := range models {
		notes = append(notes, league.FollowUp{
			ID:         m.ID,
			StudentID:  m.StudentID,
			ServantUID: m.ServantUID,
			Date:       m.Date,
			Notes:      m.Notes,
		})
	}
	return notes, nil
}
