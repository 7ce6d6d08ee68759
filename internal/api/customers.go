package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ilan2004/Ev-wheels-sub003/internal/auth"
	"github.com/ilan2004/Ev-wheels-sub003/internal/authz"
	"github.com/ilan2004/Ev-wheels-sub003/internal/logging"
	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
	"github.com/ilan2004/Ev-wheels-sub003/internal/store"
)

type customerResponse struct {
	ID         uuid.UUID `json:"id"`
	LocationID uuid.UUID `json:"location_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toCustomerResponse(c store.Customer) customerResponse {
	return customerResponse{
		ID:         c.ID,
		LocationID: c.LocationID,
		Name:       c.Name,
		Phone:      c.Phone,
		Email:      c.Email,
		CreatedAt:  c.CreatedAt,
	}
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	loc, err := requestedLocation(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid location_id")
		return
	}

	d := s.gateway.Authorize(actor, authz.Operation{
		Permissions:       []rbac.Permission{rbac.ViewCustomers},
		RequestedLocation: loc,
	})
	if !d.Allowed {
		writeDenied(w, d)
		return
	}

	limit, offset := parsePagination(r)
	customers, err := s.customers.List(r.Context(), d.Scope, limit, offset)
	if err != nil {
		logging.Error("list customers failed", "error", err)
		writeInternal(w)
		return
	}

	items := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		items = append(items, toCustomerResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit, "offset": offset})
}

type createCustomerRequest struct {
	LocationID *uuid.UUID `json:"location_id"`
	Name       string     `json:"name"`
	Phone      string     `json:"phone"`
	Email      string     `json:"email"`
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, CodeValidationError, "name is required")
		return
	}

	d := s.gateway.Authorize(actor, authz.Operation{
		Permissions:       []rbac.Permission{rbac.CreateCustomer},
		RequestedLocation: req.LocationID,
		Write:             true,
	})
	if !d.Allowed {
		writeDenied(w, d)
		return
	}

	c := store.Customer{
		ID:        uuid.New(),
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}
	if id, ok := d.Scope.Filter(); ok {
		c.LocationID = id
	}

	if err := s.customers.Create(r.Context(), c); err != nil {
		logging.Error("create customer failed", "error", err)
		writeInternal(w)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerResponse(c))
}
