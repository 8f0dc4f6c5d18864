// Package gormstore holds the GORM models and repositories shared by the
// SQLite and PostgreSQL backends. All GORM usage is confined to this
// package tree — domain types remain ORM-free.
package gormstore

import (
	"time"
)

// TeamModel maps to the "teams" table.
type TeamModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"not null;uniqueIndex"`
	Points    int    `gorm:"not null;default:0"`
	LogoURL   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TeamModel) TableName() string { return "teams" }

// StudentModel maps to the "students" table.
type StudentModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"not null"`
	Grade     int    `gorm:"not null;default:0"`
	TeamID    int64  `gorm:"not null;index"`
	Points    int    `gorm:"not null;default:0"`
	ClassID   int    `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (StudentModel) TableName() string { return "students" }

// AttendanceModel maps to the "attendance" table.
type AttendanceModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	StudentID int64  `gorm:"not null;index"`
	Date      string `gorm:"not null"`
	Type      string `gorm:"not null"`
	Status    int    `gorm:"not null;default:0"`
	CreatedAt time.Time
}

func (AttendanceModel) TableName() string { return "attendance" }

// PointsLogModel maps to the "points_log" table.
type PointsLogModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	StudentID int64  `gorm:"not null;index"`
	Points    int    `gorm:"not null"`
	Reason    string `gorm:"not null"`
	Date      string `gorm:"not null"`
	// Awards are approved on insert; unapproved rows only arise when an
	// admin flags an entry for review.
	Approved bool `gorm:"not null;default:true;index"`
	CreatedAt time.Time
}

func (PointsLogModel) TableName() string { return "points_log" }

// FollowUpModel maps to the "follow_ups" table.
type FollowUpModel struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	StudentID  int64  `gorm:"not null;index"`
	ServantUID string `gorm:"not null;index"`
	Date       string `gorm:"not null"`
	Notes      string
	CreatedAt  time.Time
}

func (FollowUpModel) TableName() string { return "follow_ups" }

// IdentityModel maps to the "identities" table. Claims holds the
// serialized claims bag as JSON text.
type IdentityModel struct {
	UID          string `gorm:"primaryKey"`
	Email        string `gorm:"not null;uniqueIndex"`
	DisplayName  string
	PasswordHash string `gorm:"not null"`
	Claims       string `gorm:"not null;default:'{}'"`
	Disabled     bool   `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (IdentityModel) TableName() string { return "identities" }

// DocumentModel maps to the "documents" table, keyed by (collection, uid).
type DocumentModel struct {
	Collection string `gorm:"primaryKey"`
	UID        string `gorm:"primaryKey"`
	Username   string `gorm:"not null"`
	Email      string `gorm:"not null"`
	Role       string `gorm:"not null;index"`
	ClassID    *int
	Status     string `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (DocumentModel) TableName() string { return "documents" }

// Models lists every model for AutoMigrate, in FK-dependency order.
func Models() []any {
	return []any{
		&TeamModel{},
		&StudentModel{},
		&AttendanceModel{},
		&PointsLogModel{},
		&FollowUpModel{},
		&IdentityModel{},
		&DocumentModel{},
	}
}
