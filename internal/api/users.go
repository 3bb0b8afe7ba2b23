package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sensorgrid/telemetry-core/internal/auth"
	"github.com/sensorgrid/telemetry-core/internal/pagination"
)

// createUserRequest is the request body for POST /users.
type createUserRequest struct {
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Password string    `json:"password"`
	Role     auth.Role `json:"role"`
}

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 8

// userSortKeys maps the accepted sortField values to account sort keys.
var userSortKeys = map[string]func(auth.User) any{
	"createdAt": func(u auth.User) any { return u.CreatedAt },
	"email":     func(u auth.User) any { return u.Email },
	"name":      func(u auth.User) any { return u.Name },
	"role":      func(u auth.User) any { return string(u.Role) },
}

// handleListUsers returns a page of accounts.
//
// Query parameters: page, limit, sortField, sortOrder, pageToken — the
// same dual-mode pagination as the sensor-data listing.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sortField := q.Get("sortField")
	if sortField == "" {
		sortField = "createdAt"
	}
	key, ok := userSortKeys[sortField]
	if !ok {
		writeBadRequest(w, "unsupported sortField: "+sortField)
		return
	}

	users, err := s.users.List(r.Context())
	if err != nil {
		s.logger.Error("list users failed", "error", err)
		writeInternalError(w, "failed to list users")
		return
	}

	result := pagination.Paginate(users,
		pagination.Request{
			Page:      atoiOrZero(q.Get("page")),
			Limit:     atoiOrZero(q.Get("limit")),
			SortField: sortField,
			SortOrder: q.Get("sortOrder"),
			Token:     q.Get("pageToken"),
		},
		func(u auth.User) string { return u.ID },
		key,
		s.logger,
	)
	writeData(w, http.StatusOK, result)
}

// handleCreateUser creates a new account.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "email and password are required")
		return
	}
	if !auth.IsValidEmail(req.Email) {
		writeBadRequest(w, "invalid email address")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}

	if req.Role == "" {
		req.Role = auth.RoleUser
	}
	if !auth.IsValidRole(req.Role) {
		writeBadRequest(w, "invalid role: must be user or admin")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hash password failed", "error", err)
		writeInternalError(w, "failed to create user")
		return
	}

	user := &auth.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
	}

	if err := s.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			writeConflict(w, "email already registered")
			return
		}
		s.logger.Error("create user failed", "error", err)
		writeInternalError(w, "failed to create user")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logger.Info("user created",
		"user_id", user.ID,
		"email", user.Email,
		"role", user.Role,
		"created_by", claims.Subject,
	)

	writeData(w, http.StatusCreated, user)
}

// handleGetUser returns one account. Non-admin callers can only fetch
// their own account.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims := claimsFromContext(r.Context())

	if claims.Role != auth.RoleAdmin && claims.Subject != id {
		writeForbidden(w, "insufficient permissions")
		return
	}

	user, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("get user failed", "id", id, "error", err)
		writeInternalError(w, "failed to fetch user")
		return
	}

	writeData(w, http.StatusOK, user)
}
