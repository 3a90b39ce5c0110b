package api

import (
	"github.com/gin-gonic/gin"

	"kiosk-sections-backend/internal/model"
	"kiosk-sections-backend/internal/parse"
	"kiosk-sections-backend/internal/store"
)

const (
	entityMachine = "Machine"

	invalidMachineID = "Invalid machine ID"
)

type createMachineRequest struct {
	SectionID parse.FlexibleID `json:"section_id" validate:"required"`
	Name      string           `json:"name" validate:"required"`
}

type updateMachineRequest struct {
	Name      store.Optional[string]           `json:"name"`
	SectionID store.Optional[parse.FlexibleID] `json:"section_id"`
}

func (r updateMachineRequest) toUpdate() (store.MachineUpdate, error) {
	var upd store.MachineUpdate
	if r.Name.Set {
		if r.Name.Value == "" {
			return upd, badRequest("name cannot be empty")
		}
		upd.Name = r.Name
	}
	if r.SectionID.Set {
		if r.SectionID.Value.IsZero() {
			return upd, badRequest("section_id cannot be empty")
		}
		id, err := r.SectionID.Value.Int64()
		if err != nil {
			return upd, badRequest(invalidSectionID)
		}
		upd.SectionID = store.Some(id)
	}
	return upd, nil
}

// activeMachine loads a machine and treats inactive ones as missing. The
// machine's section may be inactive.
func (h *Handler) activeMachine(c *gin.Context, id int64) (*model.Machine, error) {
	machine, err := h.store.GetMachine(c.Request.Context(), id)
	if err != nil {
		return nil, missing(entityMachine, err)
	}
	if !machine.Active {
		return nil, &notFoundError{entity: entityMachine}
	}
	return machine, nil
}

// CreateMachine handles POST /api/machines/create.
func (h *Handler) CreateMachine(c *gin.Context) {
	var req createMachineRequest
	if err := bindBody(c, &req); err != nil {
		respondError(c, err)
		return
	}

	sectionID, err := req.SectionID.Int64()
	if err != nil {
		respondError(c, badRequest(invalidSectionID))
		return
	}
	if _, err := h.activeSection(c, sectionID); err != nil {
		respondError(c, err)
		return
	}

	machine, err := h.store.CreateMachine(c.Request.Context(), req.Name, sectionID)
	if err != nil {
		respondError(c, missing(entitySection, err))
		return
	}

	respond(c, gin.H{
		"message": "Machine created successfully",
		"machine": newMachineResponse(machine),
	})
}

// ListMachines handles GET /api/machines/list.
func (h *Handler) ListMachines(c *gin.Context) {
	machines, err := h.store.ListMachines(c.Request.Context(), true)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, gin.H{"machines": newMachineResponses(machines)})
}

// GetMachine handles GET /api/machines/get/:id.
func (h *Handler) GetMachine(c *gin.Context) {
	id, err := pathID(c, "id", invalidMachineID)
	if err != nil {
		respondError(c, err)
		return
	}

	machine, err := h.activeMachine(c, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, gin.H{"machine": newMachineResponse(machine)})
}

// MachinesBySection handles GET /api/machines/by_section/:section_id.
func (h *Handler) MachinesBySection(c *gin.Context) {
	id, err := pathID(c, "section_id", invalidSectionID)
	if err != nil {
		respondError(c, err)
		return
	}

	section, err := h.store.GetSectionWithMachines(c.Request.Context(), id)
	if err != nil {
		respondError(c, missing(entitySection, err))
		return
	}
	if !section.Active {
		respondError(c, &notFoundError{entity: entitySection})
		return
	}

	machines := section.Machines
	for i := range machines {
		machines[i].Section = section
	}

	respond(c, gin.H{
		"section":  newSectionResponse(section, int64(len(machines))),
		"machines": newMachineResponses(machines),
	})
}

// UpdateMachine handles PUT /api/machines/update/:id.
func (h *Handler) UpdateMachine(c *gin.Context) {
	id, err := pathID(c, "id", invalidMachineID)
	if err != nil {
		respondError(c, err)
		return
	}

	var req updateMachineRequest
	if err := bindBody(c, &req); err != nil {
		respondError(c, err)
		return
	}
	upd, err := req.toUpdate()
	if err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.activeMachine(c, id); err != nil {
		respondError(c, err)
		return
	}
	if upd.SectionID.Set {
		if _, err := h.activeSection(c, upd.SectionID.Value); err != nil {
			respondError(c, err)
			return
		}
	}

	machine, err := h.store.UpdateMachine(c.Request.Context(), id, upd)
	if err != nil {
		respondError(c, missing(entityMachine, err))
		return
	}

	respond(c, gin.H{
		"message": "Machine updated successfully",
		"machine": newMachineResponse(machine),
	})
}

// DeleteMachine handles DELETE /api/machines/delete/:id.
func (h *Handler) DeleteMachine(c *gin.Context) {
	id, err := pathID(c, "id", invalidMachineID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.store.SoftDeleteMachine(c.Request.Context(), id); err != nil {
		respondError(c, missing(entityMachine, err))
		return
	}
	respond(c, gin.H{"message": "Machine deleted successfully"})
}
