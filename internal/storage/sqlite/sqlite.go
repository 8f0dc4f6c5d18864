// Package sqlite implements the unified Store interface using SQLite via GORM.
// Uses modernc.org/sqlite (pure Go, no CGO) through the glebarez/sqlite GORM driver.
//
// WAL mode is enabled by default so readers do not block the writer, which
// keeps the public standings endpoints responsive during provisioning runs.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jkaninda/ligi/internal/docstore"
	"github.com/jkaninda/ligi/internal/identity"
	"github.com/jkaninda/ligi/internal/league"
	"github.com/jkaninda/ligi/internal/storage"
	"github.com/jkaninda/ligi/internal/storage/gormstore"
)

// Config holds SQLite-specific configuration.
type Config struct {
	Path        string // Database file path.
	JournalMode string // WAL mode by default.
	BcryptCost  int    // Passed to the identity repository.
}

// Store implements storage.Store backed by SQLite.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
	path   string
	cost   int

	// Sub-store instances (created lazily on first access).
	mu         sync.Mutex
	teams      league.TeamStore
	students   league.StudentStore
	attendance league.AttendanceStore
	points     league.PointsStore
	followUps  league.FollowUpStore
	identities identity.Store
	documents  docstore.Store
}

var _ storage.Store = (*Store)(nil)

// Open creates a new SQLite-backed Store.
func Open(cfg Config, slogger *slog.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	// Ensure parent directory exists.
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
	}

	journalMode := cfg.JournalMode
	if journalMode == "" {
		journalMode = "wal"
	}

	// Build DSN with pragmas.
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(%s)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", cfg.Path, journalMode)

	gormLogger := logger.New(
		slogAdapter{slogger},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: slogger,
		path:   cfg.Path,
		cost:   cfg.BcryptCost,
	}

	slogger.Info("sqlite store opened", slog.String("path", cfg.Path), slog.String("journal_mode", journalMode))
	return s, nil
}

// Migrate runs GORM AutoMigrate to create/update tables.
// Uses the same models as the PostgreSQL backend.
func (s *Store) Migrate(_ context.Context) error {
	return s.db.AutoMigrate(gormstore.Models()...)
}

// SeedDemo inserts demo teams and students when the league is empty.
func (s *Store) SeedDemo(ctx context.Context) error {
	return gormstore.SeedDemo(ctx, s.db)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Driver returns "sqlite".
func (s *Store) Driver() string {
	return storage.DriverSQLite
}

// GormDB returns the underlying GORM DB for sub-store construction.
func (s *Store) GormDB() *gorm.DB {
	return s.db
}

// --- Sub-store accessors ---
// All sub-stores reuse the shared gormstore repositories. GORM's SQLite
// dialect handles the SQL differences transparently.

func (s *Store) Teams() league.TeamStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.teams == nil {
		s.teams = gormstore.NewTeamRepository(s.db)
	}
	return s.teams
}

func (s *Store) Students() league.StudentStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.students == nil {
		s.students = gormstore.NewStudentRepository(s.db)
	}
	return s.students
}

func (s *Store) Attendance() league.AttendanceStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attendance == nil {
		s.attendance = gormstore.NewAttendanceRepository(s.db)
	}
	return s.attendance
}

func (s *Store) Points() league.PointsStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.points == nil {
		s.points = gormstore.NewPointsRepository(s.db)
	}
	return s.points
}

func (s *Store) FollowUps() league.FollowUpStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.followUps == nil {
		s.followUps = gormstore.NewFollowUpRepository(s.db)
	}
	return s.followUps
}

func (s *Store) Identities() identity.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identities == nil {
		s.identities = gormstore.NewIdentityRepository(s.db, s.cost)
	}
	return s.identities
}

func (s *Store) Documents() docstore.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.documents == nil {
		s.documents = gormstore.NewDocumentRepository(s.db)
	}
	return s.documents
}

// slogAdapter wraps *slog.Logger for GORM's logger.Writer interface.
type slogAdapter struct {
	logger *slog.Logger
}

func (s slogAdapter) Printf(format string, args ...any) {
	s.logger.Info(fmt.Sprintf(format, args...))
}
