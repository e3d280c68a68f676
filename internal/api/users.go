package api

import (
	"net/http"

	"medeasy/pharmacy/domain"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginResponse struct {
	Token    string          `json:"token"`
	Operator domain.Operator `json:"operator"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	var role domain.Role
	if req.Role != "" {
		parsed, err := domain.ParseRole(req.Role)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		role = parsed
	}

	op, err := h.Gate.Authenticate(r.Context(), req.Username, req.Password, role)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	token, err := h.Gate.IssueToken(op)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{Token: token, Operator: op})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	op, _ := operatorFrom(r.Context())
	respondJSON(w, http.StatusOK, op)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondErr(w, r, err)
		return
	}
	op, _ := operatorFrom(r.Context())
	if err := h.Gate.ChangePassword(r.Context(), op.UserID, payload.NewPassword); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Gate.Users(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req domain.NewUser
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	u, err := h.Gate.CreateUser(r.Context(), req)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}
