package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// SeedDemo inserts a small demo league when the teams table is empty.
// Safe to call on every startup.
func SeedDemo(ctx context.Context, db *gorm.DB) error {
	var n int64
	if err := db.WithContext(ctx).Model(&TeamModel{}).Count(&n).Error; err != nil {
		return fmt.Errorf("counting teams: %w", err)
	}
	if n > 0 {
		return nil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		teams := []TeamModel{
			{Name: "Lions FC", LogoURL: "https://picsum.photos/seed/lions/100/100"},
			{Name: "Eagles United", LogoURL: "https://picsum.photos/seed/eagles/100/100"},
			{Name: "Sharks SC", LogoURL: "https://picsum.photos/seed/sharks/100/100"},
		}
		if err := tx.Create(&teams).Error; err != nil {
			return fmt.Errorf("seeding teams: %w", err)
		}

		students := []StudentModel{
			{Name: "Mark Anthony", Grade: 1, TeamID: teams[0].ID, ClassID: 1, Points: 150},
			{Name: "Sarah Smith", Grade: 1, TeamID: teams[0].ID, ClassID: 1, Points: 120},
			{Name: "David Miller", Grade: 2, TeamID: teams[1].ID, ClassID: 1, Points: 200},
			{Name: "Emma Wilson", Grade: 3, TeamID: teams[2].ID, ClassID: 1, Points: 180},
		}
		if err := tx.Create(&students).Error; err != nil {
			return fmt.Errorf("seeding students: %w", err)
		}

		// Team totals reflect their seeded members.
		for _, s := range students {
			if err := tx.Model(&TeamModel{}).
				Where("id = ?", s.TeamID).
				UpdateColumn("points", gorm.Expr("points + ?", s.Points)).Error; err != nil {
				return fmt.Errorf("seeding team points: %w", err)
			}
		}
		return nil
	})
}
