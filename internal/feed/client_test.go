package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestConvertToISO3(t *testing.T) {
	cases := []struct {
		entrada  string
		esperado string
	}{
		{"in", "IND"},
		{"IN", "IND"},
		{"IND", "IND"},
		{"br", "BRA"},
		{"us", "USA"},
		{"deu", "DEU"},
		{"zz", "ZZ"},
		{"xyz", "XYZ"},
	}

	for _, tc := range cases {
		if got := ConvertToISO3(tc.entrada); got != tc.esperado {
			t.Errorf("ConvertToISO3(%q) = %q, esperado %q", tc.entrada, got, tc.esperado)
		}
	}
}

func TestSanitizeNaN(t *testing.T) {
	cases := []struct {
		nome    string
		entrada string
	}{
		{"nan simples", `{"IND": {"2020": NaN, "2021": 4.5}}`},
		{"nan negativo", `{"IND": {"2020": -NaN}}`},
		{"nans adjacentes", `[NaN, NaN, 1.0, NaN]`},
		{"caixa mista", `{"IND": {"2020": nan}}`},
		{"espaços ao redor", `[ NaN , 2.0 ]`},
	}

	for _, tc := range cases {
		saida := SanitizeNaN([]byte(tc.entrada))
		if !json.Valid(saida) {
			t.Errorf("%s: saída continua inválida: %s", tc.nome, saida)
		}
	}
}

func TestSanitizeNaNPreservaStrings(t *testing.T) {
	cases := []struct {
		nome     string
		entrada  string
		esperado string
	}{
		{
			"nan colado em letras",
			`{"name": "NaNdo", "value": NaN}`,
			`{"name": "NaNdo", "value": null}`,
		},
		{
			"nan solto em frase",
			`{"note": "value is NaN today", "v": NaN}`,
			`{"note": "value is NaN today", "v": null}`,
		},
	}

	for _, tc := range cases {
		if saida := string(SanitizeNaN([]byte(tc.entrada))); saida != tc.esperado {
			t.Errorf("%s: sanitização alterou conteúdo de string: %s", tc.nome, saida)
		}
	}
}

func TestFetchSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/capacity.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"IND": {"2020": 100.0, "2021": NaN}, "BRA": {"2020": 50.0}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)

	serie, err := client.FetchSeries(context.Background(), DatasetCapacidade, "IND")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if v := serie["2020"]; v == nil || *v != 100.0 {
		t.Fatalf("2020 esperado 100.0, obtido %v", v)
	}
	if serie["2021"] != nil {
		t.Fatalf("2021 veio de NaN e deveria ser null, obtido %v", *serie["2021"])
	}

	if _, err := client.FetchSeries(context.Background(), DatasetCapacidade, "ARG"); !errors.Is(err, ErrPaisSemDados) {
		t.Fatalf("país ausente deveria ser ErrPaisSemDados, obtido %v", err)
	}
}

func TestFetchSeriesUpstreamIndisponivel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)

	if _, err := client.FetchSeries(context.Background(), DatasetEmissoes, "IND"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("esperado ErrUpstream, obtido %v", err)
	}

	serie := client.FetchSeriesOrEmpty(context.Background(), DatasetEmissoes, "IND")
	if len(serie) != 0 {
		t.Fatalf("degradação deveria devolver série vazia, obtido %v", serie)
	}
}

type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.items[key]
	return payload, ok
}

func (c *memCache) Set(ctx context.Context, key string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = make(map[string][]byte)
	}
	c.items[key] = payload
}

func TestFetchUsaCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{"IND": {"2020": 1.0}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, &memCache{})

	for i := 0; i < 3; i++ {
		if _, err := client.FetchSeries(context.Background(), DatasetCusto, "IND"); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if hits != 1 {
		t.Fatalf("esperado 1 acesso ao upstream com cache, obtidos %d", hits)
	}
}

func TestFetchUsinas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plants/IND.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[{"name": "Usina A", "fuel": "coal", "capacity_mw": 500, "owners": [{"name": "Acme", "share": 1.0}], "emissions": {"2020": 1000000}}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)

	usinas, err := client.FetchUsinas(context.Background(), "IND")
	if err != nil {
		t.Fatalf("fetch usinas: %v", err)
	}
	if len(usinas) != 1 || usinas[0].Nome != "Usina A" || len(usinas[0].Proprietarios) != 1 {
		t.Fatalf("payload de usinas mal interpretado: %+v", usinas)
	}

	if _, err := client.FetchUsinas(context.Background(), "ZZZ"); !errors.Is(err, ErrPaisSemDados) {
		t.Fatalf("país sem inventário deveria ser ErrPaisSemDados, obtido %v", err)
	}
}

func TestValidDataset(t *testing.T) {
	for _, ds := range Datasets {
		if got, ok := ValidDataset(string(ds)); !ok || got != ds {
			t.Errorf("ValidDataset(%q) = (%q, %v)", ds, got, ok)
		}
	}
	if _, ok := ValidDataset("precos"); ok {
		t.Error("conjunto desconhecido aceito")
	}
}
