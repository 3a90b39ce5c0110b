package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kiosk-sections-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	CreateSection(ctx context.Context, name, sectionID, location string) (*model.Section, error)
	GetSection(ctx context.Context, id int64) (*model.Section, error)
	GetSectionWithMachines(ctx context.Context, id int64) (*model.Section, error)
	ListSections(ctx context.Context, activeOnly bool) ([]model.Section, error)
	UpdateSection(ctx context.Context, id int64, upd SectionUpdate) (*model.Section, error)
	SoftDeleteSection(ctx context.Context, id int64) error

	CreateMachine(ctx context.Context, name string, sectionID int64) (*model.Machine, error)
	GetMachine(ctx context.Context, id int64) (*model.Machine, error)
	ListMachines(ctx context.Context, activeOnly bool) ([]model.Machine, error)
	ListMachinesBySection(ctx context.Context, sectionID int64, activeOnly bool) ([]model.Machine, error)
	UpdateMachine(ctx context.Context, id int64, upd MachineUpdate) (*model.Machine, error)
	SoftDeleteMachine(ctx context.Context, id int64) error

	CountActiveMachines(ctx context.Context, sectionIDs ...int64) (map[int64]int64, error)
	Ping(ctx context.Context) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// Option configures a gormStore.
type Option func(*gormStore)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *gormStore) { s.now = now }
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts ...Option) Store {
	s := &gormStore{db: db, now: defaultNow}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// defaultNow truncates to microseconds so values read back from PostgreSQL
// compare equal to what was written.
func defaultNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

const nameOrder = "name ASC, id ASC"

// --- Sections ---

// CreateSection inserts a new active section. The section_id must not be used
// by any existing section, active or not.
func (s *gormStore) CreateSection(ctx context.Context, name, sectionID, location string) (*model.Section, error) {
	db := s.db.WithContext(ctx)

	if err := s.ensureSectionCodeFree(db, sectionID, 0); err != nil {
		return nil, err
	}

	now := s.now()
	section := model.Section{
		Name:      name,
		SectionID: sectionID,
		Location:  location,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(&section).Error; err != nil {
		return nil, fmt.Errorf("create section %q: %w", sectionID, translate(err))
	}
	return &section, nil
}

// GetSection returns a section regardless of its active flag.
func (s *gormStore) GetSection(ctx context.Context, id int64) (*model.Section, error) {
	var section model.Section
	if err := s.db.WithContext(ctx).First(&section, id).Error; err != nil {
		return nil, translate(err)
	}
	return &section, nil
}

// GetSectionWithMachines returns a section with its active machines preloaded
// in name order.
func (s *gormStore) GetSectionWithMachines(ctx context.Context, id int64) (*model.Section, error) {
	var section model.Section
	err := s.db.WithContext(ctx).
		Preload("Machines", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("active = ?", true).Order(nameOrder)
		}).
		First(&section, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &section, nil
}

// ListSections returns sections ordered by name.
func (s *gormStore) ListSections(ctx context.Context, activeOnly bool) ([]model.Section, error) {
	q := s.db.WithContext(ctx).Order(nameOrder)
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	var sections []model.Section
	if err := q.Find(&sections).Error; err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// UpdateSection applies the fields set in upd and refreshes updated_at.
func (s *gormStore) UpdateSection(ctx context.Context, id int64, upd SectionUpdate) (*model.Section, error) {
	db := s.db.WithContext(ctx)

	section, err := s.GetSection(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.SectionID.Set && upd.SectionID.Value != section.SectionID {
		if err := s.ensureSectionCodeFree(db, upd.SectionID.Value, id); err != nil {
			return nil, err
		}
	}

	now := s.now()
	values := map[string]any{"updated_at": now}
	if upd.Name.Set {
		values["name"] = upd.Name.Value
	}
	if upd.SectionID.Set {
		values["section_id"] = upd.SectionID.Value
	}
	if upd.Location.Set {
		values["location"] = upd.Location.Value
	}

	if err := db.Model(section).Omit(clause.Associations).Updates(values).Error; err != nil {
		return nil, fmt.Errorf("update section %d: %w", id, translate(err))
	}

	section.UpdatedAt = now
	if upd.Name.Set {
		section.Name = upd.Name.Value
	}
	if upd.SectionID.Set {
		section.SectionID = upd.SectionID.Value
	}
	if upd.Location.Set {
		section.Location = upd.Location.Value
	}
	return section, nil
}

// SoftDeleteSection marks a section inactive. Machines are left untouched.
// Deleting an inactive section succeeds.
func (s *gormStore) SoftDeleteSection(ctx context.Context, id int64) error {
	return s.softDelete(ctx, &model.Section{}, id)
}

func (s *gormStore) ensureSectionCodeFree(db *gorm.DB, sectionID string, exceptID int64) error {
	var count int64
	q := db.Model(&model.Section{}).Where("section_id = ?", sectionID)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check section_id %q: %w", sectionID, err)
	}
	if count > 0 {
		return fmt.Errorf("section_id %q already exists: %w", sectionID, ErrConstraintViolation)
	}
	return nil
}

// --- Machines ---

// CreateMachine inserts a new active machine. The referenced section must
// exist; whether it is active is the caller's concern.
func (s *gormStore) CreateMachine(ctx context.Context, name string, sectionID int64) (*model.Machine, error) {
	db := s.db.WithContext(ctx)

	section, err := s.GetSection(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("section %d: %w", sectionID, err)
	}

	now := s.now()
	machine := model.Machine{
		Name:      name,
		SectionID: sectionID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(&machine).Error; err != nil {
		return nil, fmt.Errorf("create machine %q: %w", name, translate(err))
	}
	machine.Section = section
	return &machine, nil
}

// GetMachine returns a machine with its section, regardless of either's
// active flag.
func (s *gormStore) GetMachine(ctx context.Context, id int64) (*model.Machine, error) {
	var machine model.Machine
	if err := s.db.WithContext(ctx).Preload("Section").First(&machine, id).Error; err != nil {
		return nil, translate(err)
	}
	return &machine, nil
}

// ListMachines returns machines with their sections, ordered by name.
func (s *gormStore) ListMachines(ctx context.Context, activeOnly bool) ([]model.Machine, error) {
	q := s.db.WithContext(ctx).Preload("Section").Order(nameOrder)
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	var machines []model.Machine
	if err := q.Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}
	return machines, nil
}

// ListMachinesBySection returns the machines of one section, ordered by name.
func (s *gormStore) ListMachinesBySection(ctx context.Context, sectionID int64, activeOnly bool) ([]model.Machine, error) {
	q := s.db.WithContext(ctx).Preload("Section").Where("section_id = ?", sectionID).Order(nameOrder)
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	var machines []model.Machine
	if err := q.Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("list machines of section %d: %w", sectionID, err)
	}
	return machines, nil
}

// UpdateMachine applies the fields set in upd and refreshes updated_at. A new
// section_id must reference an existing section.
func (s *gormStore) UpdateMachine(ctx context.Context, id int64, upd MachineUpdate) (*model.Machine, error) {
	db := s.db.WithContext(ctx)

	machine, err := s.GetMachine(ctx, id)
	if err != nil {
		return nil, err
	}

	var section *model.Section
	if upd.SectionID.Set {
		section, err = s.GetSection(ctx, upd.SectionID.Value)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", upd.SectionID.Value, err)
		}
	}

	now := s.now()
	values := map[string]any{"updated_at": now}
	if upd.Name.Set {
		values["name"] = upd.Name.Value
	}
	if section != nil {
		values["section_id"] = section.ID
	}

	if err := db.Model(machine).Omit(clause.Associations).Updates(values).Error; err != nil {
		return nil, fmt.Errorf("update machine %d: %w", id, translate(err))
	}

	machine.UpdatedAt = now
	if upd.Name.Set {
		machine.Name = upd.Name.Value
	}
	if section != nil {
		machine.SectionID = section.ID
		machine.Section = section
	}
	return machine, nil
}

// SoftDeleteMachine marks a machine inactive. Deleting an inactive machine
// succeeds.
func (s *gormStore) SoftDeleteMachine(ctx context.Context, id int64) error {
	return s.softDelete(ctx, &model.Machine{}, id)
}

// CountActiveMachines returns the number of active machines per section in a
// single aggregate query. Sections without active machines are absent from
// the result.
func (s *gormStore) CountActiveMachines(ctx context.Context, sectionIDs ...int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(sectionIDs))
	if len(sectionIDs) == 0 {
		return counts, nil
	}

	type aggRow struct {
		SectionID    int64
		MachineCount int64
	}
	var rows []aggRow
	if err := s.db.WithContext(ctx).
		Model(&model.Machine{}).
		Select("section_id AS section_id, COUNT(*) AS machine_count").
		Where("active = ? AND section_id IN ?", true, sectionIDs).
		Group("section_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count active machines: %w", err)
	}

	for _, r := range rows {
		counts[r.SectionID] = r.MachineCount
	}
	return counts, nil
}

// Ping checks the database connection.
func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// softDelete flips active to false on the row with the given id. The row is
// looked up first so that a missing row is reported as ErrNotFound even on
// drivers that report zero affected rows for unchanged values.
func (s *gormStore) softDelete(ctx context.Context, row any, id int64) error {
	db := s.db.WithContext(ctx)

	if err := db.Select("id").First(row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("soft delete %d: %w", id, err)
	}

	if err := db.Model(row).Updates(map[string]any{
		"active":     false,
		"updated_at": s.now(),
	}).Error; err != nil {
		return fmt.Errorf("soft delete %d: %w", id, translate(err))
	}
	return nil
}
