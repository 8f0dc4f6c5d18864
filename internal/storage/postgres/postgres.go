// Package postgres implements the unified Store interface using PostgreSQL
// via GORM, for deployments where the league database outgrows a single
// SQLite file.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jkaninda/ligi/internal/docstore"
	"github.com/jkaninda/ligi/internal/identity"
	"github.com/jkaninda/ligi/internal/league"
	"github.com/jkaninda/ligi/internal/storage"
	"github.com/jkaninda/ligi/internal/storage/gormstore"
)

// Config configures the PostgreSQL connection and pool.
type Config struct {
	DSN             string
	BcryptCost      int           // Passed to the identity repository.
	MaxOpenConns    int           // Default: 25
	MaxIdleConns    int           // Default: 5
	ConnMaxLifetime time.Duration // Default: 30m
	ConnMaxIdleTime time.Duration // Default: 10m
}

func (c Config) maxOpen() int {
	if c.MaxOpenConns > 0 {
		return c.MaxOpenConns
	}
	return 25
}

func (c Config) maxIdle() int {
	if c.MaxIdleConns > 0 {
		return c.MaxIdleConns
	}
	return 5
}

func (c Config) maxLifetime() time.Duration {
	if c.ConnMaxLifetime > 0 {
		return c.ConnMaxLifetime
	}
	return 30 * time.Minute
}

func (c Config) maxIdleTime() time.Duration {
	if c.ConnMaxIdleTime > 0 {
		return c.ConnMaxIdleTime
	}
	return 10 * time.Minute
}

// Store implements storage.Store backed by PostgreSQL.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
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

// Open connects to PostgreSQL and configures the connection pool.
func Open(cfg Config, slogger *slog.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	gormLogger := logger.New(
		slogAdapter{slogger},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:      gormLogger,
		NowFunc:     func() time.Time { return time.Now().UTC() },
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.maxOpen())
	sqlDB.SetMaxIdleConns(cfg.maxIdle())
	sqlDB.SetConnMaxLifetime(cfg.maxLifetime())
	sqlDB.SetConnMaxIdleTime(cfg.maxIdleTime())

	slogger.Info("postgres connected",
		slog.Int("max_open_conns", cfg.maxOpen()),
		slog.Int("max_idle_conns", cfg.maxIdle()),
	)

	return &Store{db: db, logger: slogger, cost: cfg.BcryptCost}, nil
}

// Migrate runs GORM AutoMigrate to create/update tables.
func (s *Store) Migrate(_ context.Context) error {
	return s.db.AutoMigrate(gormstore.Models()...)
}

// SeedDemo inserts demo teams and students when the league is empty.
func (s *Store) SeedDemo(ctx context.Context) error {
	return gormstore.SeedDemo(ctx, s.db)
}

// Ping checks the database connection for health/readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Driver returns "postgres".
func (s *Store) Driver() string {
	return storage.DriverPostgres
}

// GormDB returns the underlying *gorm.DB for repository constructors.
func (s *Store) GormDB() *gorm.DB {
	return s.db
}

// SqlDB returns the underlying *sql.DB for raw operations if needed.
func (s *Store) SqlDB() (*sql.DB, error) {
	return s.db.DB()
}

// --- Sub-store accessors ---

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
