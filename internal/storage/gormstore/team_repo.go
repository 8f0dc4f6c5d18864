package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/jkaninda/ligi/internal/league"
)

// TeamRepository manages team records.
type TeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a TeamRepository.
func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create inserts a team and assigns its ID.
func (r *TeamRepository) Create(ctx context.Context, t *league.Team) error {
	m := TeamModel{
		Name:    t.Name,
		Points:  t.Points,
		LogoURL: t.LogoURL,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("creating team %q: %w", t.Name, err)
	}
	t.ID = m.ID
	return nil
}

// ListByPoints returns all teams ordered by points descending.
func (r *TeamRepository) ListByPoints(ctx context.Context) ([]league.Team, error) {
	var models []TeamModel
	if err := r.db.WithContext(ctx).
		Order("points DESC, name ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	teams := make([]league.Team, 0, len(models))
	for i := range models {
		teams = append(teams, *toTeamDomain(&models[i]))
	}
	return teams, nil
}

// Count returns the number of teams.
func (r *TeamRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&TeamModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting teams: %w", err)
	}
	return n, nil
}

func toTeamDomain(m *TeamModel) *league.Team {
	return &league.Team{
		ID:      m.ID,
		Name:    m.Name,
		Points:  m.Points,
		LogoURL: m.LogoURL,
	}
}
