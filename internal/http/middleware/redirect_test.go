package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/painelclima/api/internal/auth"
)

type stubRefresher struct {
	token string
	err   error
	calls int
}

func (s *stubRefresher) Refresh(ctx context.Context, rawToken string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

func newGuardFixture(t *testing.T, refresher *stubRefresher) (*Guard, *auth.JWTManager) {
	t.Helper()
	jwtMgr := auth.NewJWTManager(strings.Repeat("a", 32), strings.Repeat("b", 32), time.Minute, time.Hour)
	return NewGuard(jwtMgr, refresher, []string{"/admin", "/downloads"}, false), jwtMgr
}

func okHandler(hit *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestGuardIgnoraPrefixosLivres(t *testing.T) {
	guard, _ := newGuardFixture(t, &stubRefresher{err: errors.New("não deveria ser chamado")})

	hit := false
	req := httptest.NewRequest(http.MethodGet, "/sobre", nil)
	rec := httptest.NewRecorder()
	guard.Handler(okHandler(&hit)).ServeHTTP(rec, req)

	if !hit || rec.Code != http.StatusOK {
		t.Fatalf("rota livre deveria passar: hit=%v code=%d", hit, rec.Code)
	}
}

func TestGuardAceitaSessaoValida(t *testing.T) {
	refresher := &stubRefresher{err: errors.New("não deveria ser chamado")}
	guard, jwtMgr := newGuardFixture(t, refresher)

	token, err := jwtMgr.GerarAcesso(uuid.NewString(), "Maria", "maria@example.com", "admin")
	if err != nil {
		t.Fatalf("gerar acesso: %v", err)
	}

	hit := false
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: token})
	rec := httptest.NewRecorder()
	guard.Handler(okHandler(&hit)).ServeHTTP(rec, req)

	if !hit || rec.Code != http.StatusOK {
		t.Fatalf("sessão válida deveria passar: hit=%v code=%d", hit, rec.Code)
	}
	if refresher.calls != 0 {
		t.Fatalf("renovação chamada sem necessidade: %d", refresher.calls)
	}
}

func TestGuardRenovaSilenciosamente(t *testing.T) {
	guard, jwtMgr := newGuardFixture(t, nil)

	novo, err := jwtMgr.GerarAcesso(uuid.NewString(), "Maria", "maria@example.com", "user")
	if err != nil {
		t.Fatalf("gerar acesso: %v", err)
	}
	refresher := &stubRefresher{token: novo}
	guard.refresher = refresher

	hit := false
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "refresh-valido"})
	rec := httptest.NewRecorder()
	guard.Handler(okHandler(&hit)).ServeHTTP(rec, req)

	if !hit || rec.Code != http.StatusOK {
		t.Fatalf("renovação silenciosa deveria seguir adiante: hit=%v code=%d", hit, rec.Code)
	}
	if refresher.calls != 1 {
		t.Fatalf("esperada 1 renovação, obtidas %d", refresher.calls)
	}

	renovado := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == AccessCookieName && c.Value == novo {
			renovado = true
		}
	}
	if !renovado {
		t.Fatal("cookie de acesso renovado não acompanhou a resposta")
	}
}

func TestGuardLimitaTentativasDeRenovacao(t *testing.T) {
	refresher := &stubRefresher{err: errors.New("refresh inválido")}
	guard, _ := newGuardFixture(t, refresher)

	hit := false
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "refresh-podre"})
	// Navegação já esgotou as tentativas.
	req.AddCookie(&http.Cookie{Name: retryCookieName, Value: "2"})
	rec := httptest.NewRecorder()
	guard.Handler(okHandler(&hit)).ServeHTTP(rec, req)

	if hit {
		t.Fatal("tentativas esgotadas não deveriam alcançar o handler")
	}
	if refresher.calls != 0 {
		t.Fatalf("renovação acima do limite: %d chamadas", refresher.calls)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("esperado redirect 302, obtido %d", rec.Code)
	}
}

func TestGuardRedirecionaPreservandoDestino(t *testing.T) {
	refresher := &stubRefresher{err: errors.New("refresh inválido")}
	guard, _ := newGuardFixture(t, refresher)

	hit := false
	req := httptest.NewRequest(http.MethodGet, "/downloads/export?dataset=capacity&country=IND", nil)
	rec := httptest.NewRecorder()
	guard.Handler(okHandler(&hit)).ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("esperado 302, obtido %d", rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.HasPrefix(location, "/login?returnTo=") {
		t.Fatalf("redirect fora do login: %s", location)
	}
	if !strings.Contains(location, "%2Fdownloads%2Fexport") || !strings.Contains(location, "dataset%3Dcapacity") {
		t.Fatalf("returnTo perdeu o destino: %s", location)
	}
}
