package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-registration-api/internal/application/registration"
	"github.com/go-registration-api/internal/domain"
	"github.com/go-registration-api/internal/pkg/validate"
	"github.com/go-registration-api/internal/transport/http/middleware"
	"github.com/go-registration-api/internal/transport/http/problem"
)

// UserHandler handles the registration and validation endpoints.
type UserHandler struct {
	svc registration.Service
}

func NewUserHandler(svc registration.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, fmt.Errorf("malformed request body: %w", domain.ErrValidation))
		return
	}
	u, err := h.svc.Register(r.Context(), req)
	if err != nil {
		problem.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u.Public())
}

func (h *UserHandler) Validate(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		problem.Write(w, r, fmt.Errorf("missing credentials: %w", domain.ErrUnauthorized))
		return
	}
	var req domain.ValidateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, fmt.Errorf("malformed request body: %w", domain.ErrValidation))
		return
	}
	if err := validate.Struct(&req); err != nil {
		problem.Write(w, r, err)
		return
	}
	if err := h.svc.Validate(r.Context(), u, req.Code); err != nil {
		problem.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) GetSelf(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		problem.Write(w, r, fmt.Errorf("missing credentials: %w", domain.ErrUnauthorized))
		return
	}
	self, err := h.svc.GetSelf(r.Context(), u)
	if err != nil {
		problem.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, self.Public())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
