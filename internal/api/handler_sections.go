package api

import (
	"github.com/gin-gonic/gin"

	"kiosk-sections-backend/internal/model"
	"kiosk-sections-backend/internal/store"
)

const (
	entitySection = "Section"

	invalidSectionID = "Invalid section ID"
)

type createSectionRequest struct {
	Name      string `json:"name" validate:"required"`
	SectionID string `json:"section_id" validate:"required"`
	Location  string `json:"location" validate:"required"`
}

type updateSectionRequest struct {
	Name      store.Optional[string] `json:"name"`
	SectionID store.Optional[string] `json:"section_id"`
	Location  store.Optional[string] `json:"location"`
}

func (r updateSectionRequest) toUpdate() (store.SectionUpdate, error) {
	for _, f := range []struct {
		name string
		opt  store.Optional[string]
	}{
		{"name", r.Name},
		{"section_id", r.SectionID},
		{"location", r.Location},
	} {
		if f.opt.Set && f.opt.Value == "" {
			return store.SectionUpdate{}, badRequest(f.name + " cannot be empty")
		}
	}
	return store.SectionUpdate{
		Name:      r.Name,
		SectionID: r.SectionID,
		Location:  r.Location,
	}, nil
}

// activeSection loads a section and treats inactive ones as missing.
func (h *Handler) activeSection(c *gin.Context, id int64) (*model.Section, error) {
	section, err := h.store.GetSection(c.Request.Context(), id)
	if err != nil {
		return nil, missing(entitySection, err)
	}
	if !section.Active {
		return nil, &notFoundError{entity: entitySection}
	}
	return section, nil
}

func (h *Handler) sectionResponse(c *gin.Context, section *model.Section) (SectionResponse, error) {
	counts, err := h.store.CountActiveMachines(c.Request.Context(), section.ID)
	if err != nil {
		return SectionResponse{}, err
	}
	return newSectionResponse(section, counts[section.ID]), nil
}

// CreateSection handles POST /api/sections/create.
func (h *Handler) CreateSection(c *gin.Context) {
	var req createSectionRequest
	if err := bindBody(c, &req); err != nil {
		respondError(c, err)
		return
	}

	section, err := h.store.CreateSection(c.Request.Context(), req.Name, req.SectionID, req.Location)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, gin.H{
		"message": "Section created successfully",
		"section": newSectionResponse(section, 0),
	})
}

// ListSections handles GET /api/sections/list.
func (h *Handler) ListSections(c *gin.Context) {
	ctx := c.Request.Context()

	sections, err := h.store.ListSections(ctx, true)
	if err != nil {
		respondError(c, err)
		return
	}

	ids := make([]int64, len(sections))
	for i, s := range sections {
		ids[i] = s.ID
	}
	counts, err := h.store.CountActiveMachines(ctx, ids...)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]SectionResponse, 0, len(sections))
	for i := range sections {
		out = append(out, newSectionResponse(&sections[i], counts[sections[i].ID]))
	}
	respond(c, gin.H{"sections": out})
}

// GetSection handles GET /api/sections/get/:id.
func (h *Handler) GetSection(c *gin.Context) {
	id, err := pathID(c, "id", invalidSectionID)
	if err != nil {
		respondError(c, err)
		return
	}

	section, err := h.activeSection(c, id)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.sectionResponse(c, section)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, gin.H{"section": resp})
}

// UpdateSection handles PUT /api/sections/update/:id.
func (h *Handler) UpdateSection(c *gin.Context) {
	id, err := pathID(c, "id", invalidSectionID)
	if err != nil {
		respondError(c, err)
		return
	}

	var req updateSectionRequest
	if err := bindBody(c, &req); err != nil {
		respondError(c, err)
		return
	}
	upd, err := req.toUpdate()
	if err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.activeSection(c, id); err != nil {
		respondError(c, err)
		return
	}

	section, err := h.store.UpdateSection(c.Request.Context(), id, upd)
	if err != nil {
		respondError(c, missing(entitySection, err))
		return
	}

	resp, err := h.sectionResponse(c, section)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, gin.H{
		"message": "Section updated successfully",
		"section": resp,
	})
}

// DeleteSection handles DELETE /api/sections/delete/:id. The section is only
// flagged inactive; its machines are left as they are.
func (h *Handler) DeleteSection(c *gin.Context) {
	id, err := pathID(c, "id", invalidSectionID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.store.SoftDeleteSection(c.Request.Context(), id); err != nil {
		respondError(c, missing(entitySection, err))
		return
	}
	respond(c, gin.H{"message": "Section deleted successfully"})
}
