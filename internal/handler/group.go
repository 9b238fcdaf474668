package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/service"
)

type GroupHandler struct {
	groups *service.GroupService
}

func NewGroupHandler(groups *service.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

type groupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type groupResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

func toGroupResponse(g *models.Group) groupResponse {
	return groupResponse{ID: g.ID, Name: g.Name, Members: g.Members, CreatedAt: g.CreatedAt}
}

// Create handles POST /api/v1/groups.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		RespondAppError(w, ErrMissingUser, nil)
		return
	}

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.Name == "" {
		RespondValidationError(w, []FieldError{{Field: "name", Message: "required"}})
		return
	}

	group, err := h.groups.Create(r.Context(), req.Name, req.Members, userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toGroupResponse(group))
}

// Get handles GET /api/v1/groups/{id}.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toGroupResponse(group))
}

// List handles GET /api/v1/groups.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.List(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	out := make([]groupResponse, len(groups))
	for i, g := range groups {
		out[i] = toGroupResponse(g)
	}
	RespondSuccess(w, http.StatusOK, out)
}

// Update handles PUT /api/v1/groups/{id}.
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		RespondAppError(w, ErrMissingUser, nil)
		return
	}

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	group, err := h.groups.Update(r.Context(), &models.Group{
		ID:      r.PathValue("id"),
		Name:    req.Name,
		Members: req.Members,
	}, userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toGroupResponse(group))
}

// Delete handles DELETE /api/v1/groups/{id}.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		RespondAppError(w, ErrMissingUser, nil)
		return
	}

	if err := h.groups.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]bool{"deleted": true})
}

// AddMembers handles POST /api/v1/groups/{id}/members.
func (h *GroupHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		RespondAppError(w, ErrMissingUser, nil)
		return
	}

	var req struct {
		Members []string `json:"members"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if len(req.Members) == 0 {
		RespondValidationError(w, []FieldError{{Field: "members", Message: "required"}})
		return
	}

	group, err := h.groups.AddMembers(r.Context(), r.PathValue("id"), req.Members, userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toGroupResponse(group))
}
