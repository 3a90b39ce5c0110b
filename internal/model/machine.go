package model

import "time"

// Machine represents a device assigned to a section.
type Machine struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"size:256;not null;index"`
	SectionID int64     `gorm:"column:section_id;index;not null"`
	Active    bool      `gorm:"not null;default:true;index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	// Associations
	Section *Section
}
