package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/painelclima/api/internal/config"
	"github.com/painelclima/api/internal/feed"
)

// DatasetStatus consolida o estado observado de um conjunto do feed.
type DatasetStatus struct {
	Dataset        string     `json:"dataset"`
	Healthy        bool       `json:"healthy"`
	ConsecutiveErr int        `json:"consecutive_failures"`
	LastError      string     `json:"last_error,omitempty"`
	LastChecked    *time.Time `json:"last_checked,omitempty"`
	LastLatencyMS  int64      `json:"last_latency_ms"`
}

// Service verifica periodicamente os feeds externos e alerta quando um
// conjunto acumula falhas consecutivas.
type Service struct {
	client    *feed.Client
	cfg       config.MonitorConfig
	notifiers []Notifier
	logger    zerolog.Logger

	mu     sync.Mutex
	status map[feed.Dataset]*DatasetStatus

	once   sync.Once
	cancel context.CancelFunc
}

// NewService cria o monitor de feeds.
func NewService(client *feed.Client, cfg config.MonitorConfig, logger zerolog.Logger, notifiers ...Notifier) *Service {
	status := make(map[feed.Dataset]*DatasetStatus, len(feed.Datasets))
	for _, d := range feed.Datasets {
		status[d] = &DatasetStatus{Dataset: string(d), Healthy: true}
	}

	active := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}

	return &Service{
		client:    client,
		cfg:       cfg,
		notifiers: active,
		logger:    logger,
		status:    status,
	}
}

// Start inicia a verificação periódica. Chamadas repetidas são ignoradas.
func (s *Service) Start(ctx context.Context) {
	s.once.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		s.cancel = cancel

		go func() {
			ticker := time.NewTicker(s.cfg.Interval)
			defer ticker.Stop()

			s.RunChecks(runCtx)
			for {
				select {
				case <-runCtx.Done():
					return
				case <-ticker.C:
					s.RunChecks(runCtx)
				}
			}
		}()
	})
}

// Stop encerra a verificação periódica.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// RunChecks executa uma rodada de verificação imediata.
func (s *Service) RunChecks(ctx context.Context) {
	for _, dataset := range feed.Datasets {
		start := time.Now()
		err := s.client.Ping(ctx, dataset)
		s.record(ctx, dataset, err, time.Since(start))
	}
}

// Summary devolve o estado consolidado de todos os conjuntos.
func (s *Service) Summary() []DatasetStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]DatasetStatus, 0, len(feed.Datasets))
	for _, d := range feed.Datasets {
		out = append(out, *s.status[d])
	}
	return out
}

func (s *Service) record(ctx context.Context, dataset feed.Dataset, err error, latency time.Duration) {
	s.mu.Lock()
	st := s.status[dataset]
	now := time.Now().UTC()
	st.LastChecked = &now
	st.LastLatencyMS = latency.Milliseconds()

	var crossedThreshold, recovered bool
	if err != nil {
		st.ConsecutiveErr++
		st.LastError = err.Error()
		if st.Healthy && st.ConsecutiveErr >= s.cfg.FailThreshold {
			st.Healthy = false
			crossedThreshold = true
		}
	} else {
		if !st.Healthy {
			recovered = true
		}
		st.Healthy = true
		st.ConsecutiveErr = 0
		st.LastError = ""
	}
	s.mu.Unlock()

	switch {
	case crossedThreshold:
		s.logger.Error().Str("dataset", string(dataset)).Err(err).Msg("feed indisponível")
		s.notify(ctx, AlertMessage{
			Title:    fmt.Sprintf("feed %s indisponível", dataset),
			Text:     fmt.Sprintf("O conjunto %s falhou %d vezes seguidas: %v", dataset, s.cfg.FailThreshold, err),
			Severity: "critical",
		})
	case recovered:
		s.logger.Info().Str("dataset", string(dataset)).Msg("feed recuperado")
		s.notify(ctx, AlertMessage{
			Title:    fmt.Sprintf("feed %s recuperado", dataset),
			Text:     fmt.Sprintf("O conjunto %s voltou a responder.", dataset),
			Severity: "info",
		})
	case err != nil:
		s.logger.Warn().Str("dataset", string(dataset)).Err(err).Msg("falha ao verificar feed")
	}
}

func (s *Service) notify(ctx context.Context, msg AlertMessage) {
	for _, n := range s.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			s.logger.Warn().Err(err).Msg("falha ao enviar alerta")
		}
	}
}
