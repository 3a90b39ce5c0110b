package api

import (
	"time"

	"kiosk-sections-backend/internal/model"
)

// timestampLayout is RFC 3339 with a fixed microsecond fraction.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// SectionResponse is the wire form of a section.
type SectionResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	SectionID    string  `json:"section_id"`
	Location     string  `json:"location"`
	CreatedAt    *string `json:"created_at"`
	UpdatedAt    *string `json:"updated_at"`
	MachineCount int64   `json:"machine_count"`
}

// MachineResponse is the wire form of a machine. Section fields are read from
// the related section and are null when it could not be resolved.
type MachineResponse struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	SectionID       int64   `json:"section_id"`
	SectionName     *string `json:"section_name"`
	SectionLocation *string `json:"section_location"`
	CreatedAt       *string `json:"created_at"`
	UpdatedAt       *string `json:"updated_at"`
}

func formatTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(timestampLayout)
	return &s
}

func newSectionResponse(s *model.Section, machineCount int64) SectionResponse {
	return SectionResponse{
		ID:           s.ID,
		Name:         s.Name,
		SectionID:    s.SectionID,
		Location:     s.Location,
		CreatedAt:    formatTime(s.CreatedAt),
		UpdatedAt:    formatTime(s.UpdatedAt),
		MachineCount: machineCount,
	}
}

func newMachineResponse(m *model.Machine) MachineResponse {
	resp := MachineResponse{
		ID:        m.ID,
		Name:      m.Name,
		SectionID: m.SectionID,
		CreatedAt: formatTime(m.CreatedAt),
		UpdatedAt: formatTime(m.UpdatedAt),
	}
	if m.Section != nil {
		name, location := m.Section.Name, m.Section.Location
		resp.SectionName = &name
		resp.SectionLocation = &location
	}
	return resp
}

func newMachineResponses(machines []model.Machine) []MachineResponse {
	out := make([]MachineResponse, 0, len(machines))
	for i := range machines {
		out = append(out, newMachineResponse(&machines[i]))
	}
	return out
}
