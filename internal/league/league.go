// Package league defines the league domain types and the per-entity store
// interfaces the request handlers depend on.
package league

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("league: not found")

// Attendance types.
const (
	AttendanceLesson = "lesson"
	AttendanceMass   = "mass"
)

// Team is a league team with its running point total.
type Team struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Points  int    `json:"points"`
	LogoURL string `json:"logo_url"`
}

// Student is a league member assigned to a team and a class.
type Student struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Grade    int    `json:"grade"`
	TeamID   int64  `json:"team_id"`
	Points   int    `json:"points"`
	ClassID  int    `json:"class_id"`
	TeamName string `json:"team_name,omitempty"` // Joined from teams; empty on class-scoped listings.
}

// AttendanceRecord is one attendance mark for a student.
type AttendanceRecord struct {
	ID        int64  `json:"id"`
	StudentID int64  `json:"student_id"`
	Date      string `json:"date"`
	Type      string `json:"type"`   // "lesson" or "mass".
	Status    int    `json:"status"` // 1 present, 0 absent.
}

// PointsEntry is one row in the points log.
type PointsEntry struct {
	ID        int64  `json:"id"`
	StudentID int64  `json:"student_id"`
	Points    int    `json:"points"`
	Reason    string `json:"reason"`
	Date      string `json:"date"`
	Approved  bool   `json:"approved"`
}

// FollowUp is a servant's note about a student.
type FollowUp struct {
	ID         int64  `json:"id"`
	StudentID  int64  `json:"student_id"`
	ServantUID string `json:"servant_uid"`
	Date       string `json:"date"`
	Notes      string `json:"notes"`
}

// PublicStats is the aggregate standings payload for the public site.
type PublicStats struct {
	Teams       []Team    `json:"teams"`
	TopStudents []Student `json:"topStudents"`
	MVP         *Student  `json:"mvp"`
}

// DashboardStats is the admin dashboard aggregate payload.
type DashboardStats struct {
	TotalStudents    int64 `json:"totalStudents"`
	TotalTeams       int64 `json:"totalTeams"`
	TotalPoints      int64 `json:"totalPoints"`
	PendingApprovals int64 `json:"pendingApprovals"`
}

// TeamStore is the persistence interface for teams.
type TeamStore interface {
	Create(ctx context.Context, t *Team) error
	ListByPoints(ctx context.Context) ([]Team, error)
	Count(ctx context.Context) (int64, error)
}

// StudentStore is the persistence interface for students.
type StudentStore interface {
	Create(ctx context.Context, s *Student) error
	Get(ctx context.Context, id int64) (*Student, error)
	ListByClass(ctx context.Context, classID int) ([]Student, error)
	// RankedByPoints returns students joined with their team name, highest
	// points first. limit <= 0 means no limit.
	RankedByPoints(ctx context.Context, limit int) ([]Student, error)
	Count(ctx context.Context) (int64, error)
	TotalPoints(ctx context.Context) (int64, error)
}

// AttendanceStore records attendance marks.
type AttendanceStore interface {
	Record(ctx context.Context, a *AttendanceRecord) error
	ListByStudent(ctx context.Context, studentID int64) ([]AttendanceRecord, error)
}

// PointsStore manages the points log and the derived aggregates.
type PointsStore interface {
	// Award inserts the log entry and increments the student's and their
	// team's point totals in a single transaction.
	Award(ctx context.Context, e *PointsEntry) error
	PendingApprovals(ctx context.Context) (int64, error)
}

// FollowUpStore records servant follow-up notes.
type FollowUpStore interface {
	Create(ctx context.Context, f *FollowUp) error
	ListByStudent(ctx context.Context, studentID int64) ([]FollowUp, error)
}
