package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/painelclima/api/internal/http/middleware"
	"github.com/painelclima/api/internal/repo"
	"github.com/painelclima/api/internal/service"
)

func (h *Handler) pathUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "id inválido")
		return uuid.Nil, false
	}
	return id, true
}

// ownerOrAdmin autoriza o dono do recurso ou um administrador.
func ownerOrAdmin(r *http.Request, id uuid.UUID) bool {
	if httpmiddleware.IsAdmin(r.Context()) {
		return true
	}
	return httpmiddleware.GetSubject(r.Context()) == id.String()
}

// GetUser lê um perfil (dono ou administrador).
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUserID(w, r)
	if !ok {
		return
	}
	if !ownerOrAdmin(r, id) {
		WriteError(w, http.StatusForbidden, "acesso negado")
		return
	}

	usuario, err := h.userService.Get(r.Context(), id)
	if err != nil {
		h.handleUserError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user": usuario})
}

// UpdateUser altera nome/e-mail/senha do próprio dono (ou administrador).
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUserID(w, r)
	if !ok {
		return
	}
	if !ownerOrAdmin(r, id) {
		WriteError(w, http.StatusForbidden, "acesso negado")
		return
	}

	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	usuario, err := h.userService.UpdateProfile(r.Context(), id, payload.Name, payload.Email, payload.Password)
	if err != nil {
		h.handleUserError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"message": "perfil atualizado", "user": usuario})
}

// DeleteUser remove a própria conta (ou qualquer conta, se administrador).
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUserID(w, r)
	if !ok {
		return
	}
	if !ownerOrAdmin(r, id) {
		WriteError(w, http.StatusForbidden, "acesso negado")
		return
	}
	h.deleteUserByID(w, r, id)
}

// ListUsers devolve todos os perfis (administração).
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	usuarios, err := h.userService.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("listagem de usuários falhou")
		WriteError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	if usuarios == nil {
		usuarios = []repo.Usuario{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"users": usuarios})
}

// CreateUser cria conta por ação administrativa.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		Password   string `json:"password"`
		Role       string `json:"role"`
		IsVerified bool   `json:"is_verified"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	if payload.Role == "" {
		payload.Role = repo.PapelUser
	}

	usuario, err := h.userService.Create(r.Context(), service.CreateParams{
		Nome:       payload.Name,
		Email:      payload.Email,
		Senha:      payload.Password,
		Papel:      payload.Role,
		Verificado: payload.IsVerified,
	})
	if err != nil {
		h.handleUserError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"message": "usuário criado", "user": usuario})
}

// AdminUpdateUser altera papel e verificação.
func (h *Handler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUserID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Role       string `json:"role"`
		IsVerified bool   `json:"is_verified"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	usuario, err := h.userService.UpdateAdmin(r.Context(), id, payload.Role, payload.IsVerified)
	if err != nil {
		h.handleUserError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"message": "usuário atualizado", "user": usuario})
}

// ApproveUser libera o acesso de uma conta pendente mantendo o papel.
func (h *Handler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUserID(w, r)
	if !ok {
		return
	}

	atual, err := h.userService.Get(r.Context(), id)
	if err != nil {
		h.handleUserError(w, err)
		return
	}

	usuario, err := h.userService.UpdateAdmin(r.Context(), id, atual.Papel, true)
	if err != nil {
		h.handleUserError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"message": "usuário aprovado", "user": usuario})
}

// AdminDeleteUser remove qualquer conta.
func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUserID(w, r)
	if !ok {
		return
	}
	h.deleteUserByID(w, r, id)
}

func (h *Handler) deleteUserByID(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	report, err := h.userService.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "usuário não encontrado")
			return
		}
		log.Error().Err(err).Str("usuario", id.String()).Msg("remoção de usuário falhou")
		// Relata o que foi efetivamente removido para nunca esconder um
		// estado meio-removido.
		if report != nil {
			WriteJSON(w, http.StatusInternalServerError, map[string]any{
				"message": "remoção incompleta",
				"report":  report,
			})
			return
		}
		WriteError(w, http.StatusInternalServerError, "erro interno")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"message": "usuário removido", "report": report})
}

func (h *Handler) handleUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		WriteError(w, http.StatusNotFound, "usuário não encontrado")
	case errors.Is(err, service.ErrEmailEmUso):
		WriteError(w, http.StatusConflict, "e-mail já cadastrado")
	case errors.Is(err, service.ErrPapelInvalido):
		WriteError(w, http.StatusBadRequest, "papel inválido")
	default:
		log.Error().Err(err).Msg("operação de usuário falhou")
		WriteError(w, http.StatusInternalServerError, "erro interno")
	}
}
