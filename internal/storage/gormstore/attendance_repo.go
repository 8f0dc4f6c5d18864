package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/jkaninda/ligi/internal/league"
)

// AttendanceRepository records attendance marks.
type AttendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository creates an AttendanceRepository.
func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Record inserts an attendance mark after checking the student exists.
func (r *AttendanceRepository) Record(ctx context.Context, a *league.AttendanceRecord) error {
	if err := studentExists(ctx, r.db, a.StudentID); err != nil {
		return err
	}
	m := AttendanceModel{
		StudentID: a.StudentID,
		Date:      a.Date,
		Type:      a.Type,
		Status:    a.Status,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("recording attendance for student %d: %w", a.StudentID, err)
	}
	a.ID = m.ID
	return nil
}

// ListByStudent returns a student's attendance history, newest first.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID int64) ([]league.AttendanceRecord, error) {
	var models []AttendanceModel
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("date DESC, id DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing attendance for student %d: %w", studentID, err)
	}
	records := make([]league.AttendanceRecord, 0, len(models))
	for _, m := range models {
		records = append(records, league.AttendanceRecord{
			ID:        m.ID,
			StudentID: m.StudentID,
			Date:      m.Date,
			Type:      m.Type,
			Status:    m.Status,
		})
	}
	return records, nil
}
