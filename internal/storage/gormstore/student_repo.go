package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jkaninda/ligi/internal/league"
)

// StudentRepository manages student records.
type StudentRepository struct {
	db *gorm.DB
}

// NewStudentRepository creates a StudentRepository.
func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create inserts a student and assigns its ID.
func (r *StudentRepository) Create(ctx context.Context, s *league.Student) error {
	m := StudentModel{
		Name:    s.Name,
		Grade:   s.Grade,
		TeamID:  s.TeamID,
		Points:  s.Points,
		ClassID: s.ClassID,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("creating student %q: %w", s.Name, err)
	}
	s.ID = m.ID
	return nil
}

// Get retrieves a student by ID.
func (r *StudentRepository) Get(ctx context.Context, id int64) (*league.Student, error) {
	var m StudentModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, league.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting student %d: %w", id, err)
	}
	return toStudentDomain(&m), nil
}

// ListByClass returns the students of one class ordered by name.
func (r *StudentRepository) ListByClass(ctx context.Context, classID int) ([]league.Student, error) {
	var models []StudentModel
	if err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("name ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing students of class %d: %w", classID, err)
	}
	students := make([]league.Student, 0, len(models))
	for i := range models {
		students = append(students, *toStudentDomain(&models[i]))
	}
	return students, nil
}

// rankedRow carries the join result of RankedByPoints.
type rankedRow struct {
	StudentModel
	TeamName string
}

// RankedByPoints returns students joined with their team name, highest
// points first. limit <= 0 returns all.
func (r *StudentRepository) RankedByPoints(ctx context.Context, limit int) ([]league.Student, error) {
	q := r.db.WithContext(ctx).
		Model(&StudentModel{}).
		Select("students.*, teams.name AS team_name").
		Joins("LEFT JOIN teams ON teams.id = students.team_id").
		Order("students.points DESC, students.name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []rankedRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("ranking students: %w", err)
	}
	students := make([]league.Student, 0, len(rows))
	for i := range rows {
		s := toStudentDomain(&rows[i].StudentModel)
		s.TeamName = rows[i].TeamName
		students = append(students, *s)
	}
	return students, nil
}

// Count returns the number of students.
func (r *StudentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&StudentModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting students: %w", err)
	}
	return n, nil
}

// TotalPoints sums all student points.
func (r *StudentRepository) TotalPoints(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&StudentModel{}).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("summing points: %w", err)
	}
	return total, nil
}

// studentExists maps a missing student to league.ErrNotFound.
func studentExists(ctx context.Context, db *gorm.DB, id int64) error {
	var n int64
	if err := db.WithContext(ctx).
		Model(&StudentModel{}).
		Where("id = ?", id).
		Count(&n).Error; err != nil {
		return fmt.Errorf("checking student %d: %w", id, err)
	}
	if n == 0 {
		return league.ErrNotFound
	}
	return nil
}

func toStudentDomain(m *StudentModel) *league.Student {
	return &league.Student{
		ID:      m.ID,
		Name:    m.Name,
		Grade:   m.Grade,
		TeamID:  m.TeamID,
		Points:  m.Points,
		ClassID: m.ClassID,
	}
}
