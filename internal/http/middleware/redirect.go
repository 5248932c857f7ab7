package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/painelclima/api/internal/auth"
)

const (
	// RefreshCookieName é o cookie httpOnly com o refresh token.
	RefreshCookieName = "refreshToken"
	// retryCookieName conta tentativas de renovação silenciosa para a
	// mesma navegação, evitando laço de redirects.
	retryCookieName = "session_retry"
	// maxRefreshAttempts limita as renovações silenciosas por navegação.
	maxRefreshAttempts = 2

	loginPath = "/login"
)

// Refresher renova o token de acesso a partir do refresh token.
type Refresher interface {
	Refresh(ctx context.Context, rawToken string) (string, error)
}

// Guard protege prefixos de página no servidor: sem sessão válida, tenta
// uma renovação silenciosa limitada e, falhando, redireciona para o login
// com returnTo apontando para o destino original.
type Guard struct {
	jwt       *auth.JWTManager
	refresher Refresher
	prefixes  []string
	secure    bool
}

// NewGuard cria o middleware de proteção de prefixos.
func NewGuard(jwtManager *auth.JWTManager, refresher Refresher, prefixes []string, secure bool) *Guard {
	return &Guard{jwt: jwtManager, refresher: refresher, prefixes: prefixes, secure: secure}
}

// Handler aplica a proteção aos prefixos configurados.
func (g *Guard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.protected(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if _, err := ResolveSession(r, g.jwt); err == nil {
			g.clearRetryCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		// Renovação silenciosa, limitada para nunca entrar em laço.
		attempts := g.retryCount(r)
		if attempts < maxRefreshAttempts {
			if c, err := r.Cookie(RefreshCookieName); err == nil && c.Value != "" {
				token, err := g.refresher.Refresh(r.Context(), c.Value)
				if err == nil {
					g.setAccessCookie(w, token)
					g.clearRetryCookie(w)
					// A requisição segue com a sessão renovada; o cookie
					// novo também acompanha a resposta.
					r2 := r.Clone(r.Context())
					r2.Header.Set("Authorization", "Bearer "+token)
					next.ServeHTTP(w, r2)
					return
				}
				log.Debug().Err(err).Msg("renovação silenciosa falhou")
			}
			g.setRetryCookie(w, attempts+1)
		}

		// Redirect de pós-login não volta para o login.
		if r.URL.Query().Get("from") == "login" {
			WriteErrorStatus(w)
			return
		}

		returnTo := r.URL.Path
		if r.URL.RawQuery != "" {
			returnTo += "?" + r.URL.RawQuery
		}

		http.Redirect(w, r, loginPath+"?returnTo="+url.QueryEscape(returnTo), http.StatusFound)
	})
}

func (g *Guard) protected(path string) bool {
	for _, prefix := range g.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (g *Guard) retryCount(r *http.Request) int {
	c, err := r.Cookie(retryCookieName)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(c.Value)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (g *Guard) setRetryCookie(w http.ResponseWriter, attempts int) {
	http.SetCookie(w, &http.Cookie{
		Name:     retryCookieName,
		Value:    strconv.Itoa(attempts),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (g *Guard) clearRetryCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     retryCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (g *Guard) setAccessCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(g.jwt.AccessTTL()),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// WriteErrorStatus devolve 401 sem redirecionar (evita laço pós-login).
func WriteErrorStatus(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "sessão expirada")
}
