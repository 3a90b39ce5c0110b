package model

import "time"

// Section represents a physical location that machines are assigned to.
type Section struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"size:256;not null;index"`
	SectionID string    `gorm:"column:section_id;size:128;not null;uniqueIndex"` // Business-facing code
	Location  string    `gorm:"size:256;not null"`
	Active    bool      `gorm:"not null;default:true;index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	// Associations
	Machines []Machine `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE"`
}
