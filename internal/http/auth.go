package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/painelclima/api/internal/http/middleware"
	"github.com/painelclima/api/internal/repo"
	"github.com/painelclima/api/internal/service"
)

// Login autentica por e-mail e senha e instala os cookies de sessão.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		WriteError(w, http.StatusBadRequest, "email e senha são obrigatórios")
		return
	}

	result, err := h.authService.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	h.setAuthCookies(w, result.AccessToken, result.RefreshToken, result.RefreshExpiry)
	WriteJSON(w, http.StatusOK, map[string]any{
		"message":      "login realizado",
		"user":         result.Usuario,
		"token":        result.AccessToken,
		"refreshToken": result.RefreshToken,
	})
}

// Register cria conta pendente de aprovação; não autentica o chamador.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	usuario, err := h.authService.Register(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailEmUso) {
			WriteError(w, http.StatusConflict, "e-mail já cadastrado")
			return
		}
		// Erros de validação chegam com mensagem segura para o cliente.
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "cadastro recebido; aguarde aprovação de um administrador",
		"user":    usuario,
	})
}

// Refresh emite novo token de acesso a partir do cookie de refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(httpmiddleware.RefreshCookieName)
	if err != nil || c.Value == "" {
		WriteError(w, http.StatusUnauthorized, "refresh token ausente")
		return
	}

	token, err := h.authService.Refresh(r.Context(), c.Value)
	if err != nil {
		if errors.Is(err, service.ErrRefreshInvalido) {
			h.clearAuthCookies(w)
			WriteError(w, http.StatusUnauthorized, "refresh token inválido")
			return
		}
		log.Error().Err(err).Msg("refresh falhou")
		WriteError(w, http.StatusInternalServerError, "erro interno")
		return
	}

	h.setAuthCookies(w, token, "", time.Time{})
	WriteJSON(w, http.StatusOK, map[string]any{
		"message": "token renovado",
		"token":   token,
	})
}

// Logout revoga o refresh token e limpa os cookies. Sempre responde 200:
// o cliente termina deslogado mesmo se a revogação falhar no servidor.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(httpmiddleware.RefreshCookieName); err == nil && c.Value != "" {
		if err := h.authService.Logout(r.Context(), c.Value); err != nil {
			log.Warn().Err(err).Msg("revogação no logout falhou")
		}
	}

	h.clearAuthCookies(w)
	WriteMessage(w, http.StatusOK, "logout realizado")
}

// Me devolve o perfil do sujeito autenticado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	subject, err := uuid.Parse(httpmiddleware.GetSubject(r.Context()))
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "identificação inválida")
		return
	}

	usuario, err := h.authService.GetMe(r.Context(), subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "usuário não encontrado")
			return
		}
		log.Error().Err(err).Msg("leitura de perfil falhou")
		WriteError(w, http.StatusInternalServerError, "erro interno")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"user": usuario})
}

func (h *Handler) handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrCredenciaisInvalidas):
		WriteError(w, http.StatusUnauthorized, "credenciais inválidas")
	case errors.Is(err, service.ErrEmailNaoConfirmado):
		WriteError(w, http.StatusForbidden, "e-mail ainda não confirmado")
	case errors.Is(err, service.ErrAguardandoAprovacao):
		// Estado informativo, não uma falha do usuário.
		WriteJSON(w, http.StatusForbidden, map[string]string{
			"message": "conta aguardando aprovação de um administrador",
			"status":  "pending_approval",
		})
	default:
		log.Error().Err(err).Msg("autenticação falhou")
		WriteError(w, http.StatusInternalServerError, "erro interno")
	}
}
