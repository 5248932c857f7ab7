package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/painelclima/api/internal/auth"
	"github.com/painelclima/api/internal/repo"
)

type contextKey string

const (
	ContextKeySubject contextKey = "subject"
	ContextKeyNome    contextKey = "nome"
	ContextKeyEmail   contextKey = "email"
	ContextKeyPapel   contextKey = "papel"
)

// AccessCookieName é o cookie httpOnly com o token de acesso.
const AccessCookieName = "token"

// ResolveSession extrai e valida o token de acesso da requisição,
// aceitando Authorization: Bearer ou o cookie de acesso. É a única
// função de verificação de identidade do serviço; middleware e rotas
// usam todas o mesmo caminho.
func ResolveSession(r *http.Request, jwtManager *auth.JWTManager) (*auth.AccessClaims, error) {
	authHeader := r.Header.Get("Authorization")
	if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return jwtManager.ValidarAcesso(parts[1])
	}

	if c, err := r.Cookie(AccessCookieName); err == nil && c.Value != "" {
		return jwtManager.ValidarAcesso(c.Value)
	}

	return nil, auth.ErrTokenInvalido
}

// Auth valida a sessão e injeta claims no contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := ResolveSession(r, jwtManager)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "token ausente ou inválido")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyNome, claims.Nome)
			ctx = context.WithValue(ctx, ContextKeyEmail, claims.Email)
			ctx = context.WithValue(ctx, ContextKeyPapel, claims.Papel)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera o subject do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetNome recupera o nome do contexto.
func GetNome(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyNome).(string)
	return val
}

// GetEmail recupera o e-mail do contexto.
func GetEmail(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyEmail).(string)
	return val
}

// GetPapel recupera o papel do contexto.
func GetPapel(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyPapel).(string)
	return val
}

// IsAdmin informa se o sujeito do contexto é administrador.
func IsAdmin(ctx context.Context) bool {
	return strings.EqualFold(GetPapel(ctx), repo.PapelAdmin)
}

// RequireAdmin garante papel de administrador.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			writeError(w, http.StatusForbidden, "acesso restrito a administradores")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
