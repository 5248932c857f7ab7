package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/painelclima/api/internal/config"
	"github.com/painelclima/api/internal/feed"
)

type stubNotifier struct {
	mu     sync.Mutex
	alerts []AlertMessage
}

func (s *stubNotifier) Notify(ctx context.Context, msg AlertMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, msg)
	return nil
}

func (s *stubNotifier) recorded() []AlertMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AlertMessage, len(s.alerts))
	copy(out, s.alerts)
	return out
}

func newMonitorFixture(t *testing.T, upstream http.HandlerFunc) (*Service, *stubNotifier, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	client := feed.NewClient(srv.URL, time.Second, nil)
	notifier := &stubNotifier{}
	cfg := config.MonitorConfig{Interval: time.Minute, FailThreshold: 2}

	return NewService(client, cfg, zerolog.Nop(), notifier), notifier, srv
}

func TestRunChecksMarcaFeedSaudavel(t *testing.T) {
	svc, notifier, _ := newMonitorFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	svc.RunChecks(context.Background())

	for _, st := range svc.Summary() {
		if !st.Healthy || st.ConsecutiveErr != 0 {
			t.Errorf("conjunto %s deveria estar saudável: %+v", st.Dataset, st)
		}
		if st.LastChecked == nil {
			t.Errorf("conjunto %s sem registro de verificação", st.Dataset)
		}
	}
	if len(notifier.recorded()) != 0 {
		t.Fatalf("feed saudável não deveria alertar: %v", notifier.recorded())
	}
}

func TestRunChecksAlertaAposLimiteDeFalhas(t *testing.T) {
	svc, notifier, _ := newMonitorFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	// Primeira rodada: abaixo do limite, sem alerta.
	svc.RunChecks(context.Background())
	if len(notifier.recorded()) != 0 {
		t.Fatalf("alerta antes do limite: %v", notifier.recorded())
	}

	// Segunda rodada cruza o limite: um alerta crítico por conjunto.
	svc.RunChecks(context.Background())
	alerts := notifier.recorded()
	if len(alerts) != len(feed.Datasets) {
		t.Fatalf("esperados %d alertas, obtidos %d", len(feed.Datasets), len(alerts))
	}
	for _, a := range alerts {
		if a.Severity != "critical" {
			t.Errorf("alerta deveria ser crítico: %+v", a)
		}
	}

	// Terceira rodada segue indisponível sem alertar de novo.
	svc.RunChecks(context.Background())
	if got := len(notifier.recorded()); got != len(feed.Datasets) {
		t.Fatalf("alerta repetido para o mesmo incidente: %d", got)
	}
}

func TestRunChecksNotificaRecuperacao(t *testing.T) {
	falhar := true
	var mu sync.Mutex

	svc, notifier, _ := newMonitorFixture(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if falhar {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	svc.RunChecks(context.Background())
	svc.RunChecks(context.Background())

	mu.Lock()
	falhar = false
	mu.Unlock()

	svc.RunChecks(context.Background())

	alerts := notifier.recorded()
	// Para cada conjunto: um alerta crítico e um de recuperação.
	if len(alerts) != 2*len(feed.Datasets) {
		t.Fatalf("esperados %d alertas, obtidos %d", 2*len(feed.Datasets), len(alerts))
	}

	recuperados := 0
	for _, a := range alerts {
		if a.Severity == "info" {
			recuperados++
		}
	}
	if recuperados != len(feed.Datasets) {
		t.Fatalf("esperadas %d recuperações, obtidas %d", len(feed.Datasets), recuperados)
	}

	for _, st := range svc.Summary() {
		if !st.Healthy {
			t.Errorf("conjunto %s deveria ter recuperado: %+v", st.Dataset, st)
		}
	}
}
