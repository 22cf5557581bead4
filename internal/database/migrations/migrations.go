// Package migrations versions the profile store schema. Each applied
// step is recorded in schema_versions, so opening an existing database
// only runs the steps it has not seen.
package migrations

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"gorm.io/gorm"
)

// Migration is one schema step. Down may be nil for steps that cannot be
// reverted.
type Migration struct {
	Version     string
	Description string
	Up          func(tx *gorm.DB) error
	Down        func(tx *gorm.DB) error
}

// MigrationRecord is a row of schema_versions.
type MigrationRecord struct {
	Version     string    `gorm:"primaryKey;size:32"`
	Description string    `gorm:"size:255"`
	AppliedAt   time.Time `gorm:"not null"`
}

// TableName maps MigrationRecord to schema_versions.
func (MigrationRecord) TableName() string { return "schema_versions" }

// MigrationStatus reports whether a registered step has been applied.
type MigrationStatus struct {
	Version     string
	Description string
	Applied     bool
	AppliedAt   *time.Time
}

// Migrator applies registered steps in version order.
type Migrator struct {
	db     *gorm.DB
	logger *slog.Logger
	steps  []Migration
}

// NewMigrator returns a migrator over db. A nil logger uses slog.Default.
func NewMigrator(db *gorm.DB, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{db: db, logger: logger}
}

// RegisterAll adds steps. Order of registration does not matter.
func (m *Migrator) RegisterAll(steps []Migration) {
	m.steps = append(m.steps, steps...)
	slices.SortStableFunc(m.steps, func(a, b Migration) int {
		return cmp.Compare(a.Version, b.Version)
	})
}

// Up applies every pending step, each in its own transaction.
func (m *Migrator) Up(ctx context.Context) error {
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}

	for _, step := range m.steps {
		if _, done := applied[step.Version]; done {
			continue
		}
		m.logger.InfoContext(ctx, "applying schema migration",
			slog.String("version", step.Version),
			slog.String("description", step.Description),
		)
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := step.Up(tx); err != nil {
				return err
			}
			return tx.Create(&MigrationRecord{
				Version:     step.Version,
				Description: step.Description,
				AppliedAt:   time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("applying migration %s: %w", step.Version, err)
		}
	}
	return nil
}

// Down reverts the most recently applied step. It is a no-op on a
// database with nothing applied.
func (m *Migrator) Down(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}

	var last MigrationRecord
	err := m.db.WithContext(ctx).Order("version DESC").Take(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	idx := slices.IndexFunc(m.steps, func(s Migration) bool { return s.Version == last.Version })
	if idx < 0 {
		return fmt.Errorf("migration %s is applied but not registered", last.Version)
	}
	step := m.steps[idx]
	if step.Down == nil {
		return fmt.Errorf("migration %s does not support rollback", step.Version)
	}

	m.logger.InfoContext(ctx, "reverting schema migration", slog.String("version", step.Version))
	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := step.Down(tx); err != nil {
			return err
		}
		return tx.Delete(&MigrationRecord{Version: step.Version}).Error
	})
	if err != nil {
		return fmt.Errorf("reverting migration %s: %w", step.Version, err)
	}
	return nil
}

// Status lists every registered step in version order.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, len(m.steps))
	for i, step := range m.steps {
		out[i] = MigrationStatus{Version: step.Version, Description: step.Description}
		if rec, ok := applied[step.Version]; ok {
			at := rec.AppliedAt
			out[i].Applied = true
			out[i].AppliedAt = &at
		}
	}
	return out, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&MigrationRecord{}); err != nil {
		return fmt.Errorf("creating schema_versions: %w", err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[string]MigrationRecord, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	var records []MigrationRecord
	if err := m.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("reading schema versions: %w", err)
	}
	byVersion := make(map[string]MigrationRecord, len(records))
	for _, r := range records {
		byVersion[r.Version] = r
	}
	return byVersion, nil
}
