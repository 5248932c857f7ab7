package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
)

// Dataset identifica cada série externa publicada pelo feed.
type Dataset string

const (
	DatasetCapacidade Dataset = "capacity"
	DatasetEmissoes   Dataset = "emissions"
	DatasetCusto      Dataset = "cost"
	DatasetBeneficio  Dataset = "benefit"
)

// Datasets lista os conjuntos conhecidos, na ordem exibida pelo painel.
var Datasets = []Dataset{DatasetCapacidade, DatasetEmissoes, DatasetCusto, DatasetBeneficio}

// ValidDataset informa se o nome corresponde a um conjunto conhecido.
func ValidDataset(name string) (Dataset, bool) {
	for _, d := range Datasets {
		if string(d) == name {
			return d, true
		}
	}
	return "", false
}

var (
	// ErrPaisSemDados indica país ausente no conjunto solicitado.
	ErrPaisSemDados = errors.New("país sem dados no conjunto")
	// ErrUpstream indica feed externo inacessível ou com resposta inválida.
	ErrUpstream = errors.New("falha no feed externo")
)

// Serie mapeia ano → valor. Valores nulos vêm de campos NaN do upstream.
type Serie map[string]*float64

// Usina descreve uma planta com emissões anuais e participação societária.
type Usina struct {
	Nome          string         `json:"name"`
	Combustivel   string         `json:"fuel"`
	CapacidadeMW  float64        `json:"capacity_mw"`
	Proprietarios []Participante `json:"owners"`
	Emissoes      Serie          `json:"emissions"`
}

// Participante descreve a fração de um proprietário em uma usina.
type Participante struct {
	Nome   string  `json:"name"`
	Fracao float64 `json:"share"`
}

type cacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte)
}

// Client busca os JSONs por país no feed externo. Sem estado próprio além
// do cache opcional; cada chamada é uma requisição independente.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      cacheStore
}

// NewClient cria o adaptador do feed. cache pode ser nil.
func NewClient(baseURL string, timeout time.Duration, cache cacheStore) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
	}
}

// FetchSeries busca a série de um país em um conjunto. País ausente no
// payload é ErrPaisSemDados; problemas de transporte são ErrUpstream.
func (c *Client) FetchSeries(ctx context.Context, dataset Dataset, iso3 string) (Serie, error) {
	payload, err := c.fetch(ctx, fmt.Sprintf("%s/%s.json", c.baseURL, dataset))
	if err != nil {
		return nil, err
	}

	var porPais map[string]Serie
	if err := json.Unmarshal(payload, &porPais); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	serie, ok := porPais[iso3]
	if !ok {
		return nil, ErrPaisSemDados
	}
	return serie, nil
}

// FetchSeriesOrEmpty degrada para série vazia em vez de falhar, para que
// um país sem dados não derrube a página inteira.
func (c *Client) FetchSeriesOrEmpty(ctx context.Context, dataset Dataset, iso3 string) Serie {
	serie, err := c.FetchSeries(ctx, dataset, iso3)
	if err != nil {
		if !errors.Is(err, ErrPaisSemDados) {
			log.Warn().Err(err).Str("dataset", string(dataset)).Str("pais", iso3).Msg("feed degradado para série vazia")
		}
		return Serie{}
	}
	return serie
}

// FetchUsinas busca o inventário de usinas de um país.
func (c *Client) FetchUsinas(ctx context.Context, iso3 string) ([]Usina, error) {
	payload, err := c.fetch(ctx, fmt.Sprintf("%s/plants/%s.json", c.baseURL, iso3))
	if err != nil {
		return nil, err
	}

	var usinas []Usina
	if err := json.Unmarshal(payload, &usinas); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return usinas, nil
}

// Ping verifica a disponibilidade de um conjunto (usado pelo monitor).
func (c *Client) Ping(ctx context.Context, dataset Dataset) error {
	url := fmt.Sprintf("%s/%s.json", c.baseURL, dataset)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	if c.cache != nil {
		if payload, ok := c.cache.Get(ctx, url); ok {
			return payload, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrPaisSemDados
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	payload := SanitizeNaN(body)

	if c.cache != nil {
		c.cache.Set(ctx, url, payload)
	}
	return payload, nil
}

// nanToken casa o literal NaN que alguns geradores de JSON do upstream
// emitem para séries incompletas. Exige um delimitador estrutural
// (`:`, `,` ou `[`) antes do token: NaN cercado só por espaços dentro
// de uma string ("valor NaN hoje") fica intacto.
var nanToken = regexp.MustCompile(`(?i)(^|[:,\[]\s*)(-?NaN)(\s*[,\]\}]|\s*$)`)

// SanitizeNaN troca tokens NaN por null para que o payload volte a ser
// JSON válido. Nunca propaga erro de parse por causa deles.
func SanitizeNaN(payload []byte) []byte {
	if !bytes.Contains(bytes.ToUpper(payload), []byte("NAN")) {
		return payload
	}
	for {
		replaced := nanToken.ReplaceAll(payload, []byte("${1}null${3}"))
		if bytes.Equal(replaced, payload) {
			return replaced
		}
		payload = replaced
	}
}
