package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/painelclima/api/internal/dataset"
	"github.com/painelclima/api/internal/feed"
)

// countryParam lê e normaliza ?country= para ISO3. Aceita códigos de 2 ou
// 3 letras em qualquer caixa.
func countryParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("country"))
	if raw == "" {
		WriteDataError(w, http.StatusBadRequest, "parâmetro country obrigatório")
		return "", false
	}
	return feed.ConvertToISO3(raw), true
}

// serveSeries busca a série do país, aplica a conversão de unidade e
// responde as linhas por ano.
func (h *Handler) serveSeries(w http.ResponseWriter, r *http.Request, ds feed.Dataset, conv func(float64) float64) {
	iso3, ok := countryParam(w, r)
	if !ok {
		return
	}

	serie, err := h.feed.FetchSeries(r.Context(), ds, iso3)
	if err != nil {
		h.handleFeedError(w, ds, iso3, err)
		return
	}
	if conv != nil {
		serie = dataset.ConverterSerie(serie, conv)
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"country": iso3,
		"rows":    dataset.SerieParaLinhas(serie),
	})
}

// CapacityData responde capacidade instalada por ano em GW.
func (h *Handler) CapacityData(w http.ResponseWriter, r *http.Request) {
	h.serveSeries(w, r, feed.DatasetCapacidade, dataset.MWParaGW)
}

// EmissionData responde emissões por ano em Mt. Com ?by=owner, aloca as
// emissões das usinas aos proprietários pela participação societária.
func (h *Handler) EmissionData(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("by") == "owner" {
		h.emissionsByOwner(w, r)
		return
	}
	h.serveSeries(w, r, feed.DatasetEmissoes, dataset.ToneladasParaMt)
}

func (h *Handler) emissionsByOwner(w http.ResponseWriter, r *http.Request) {
	iso3, ok := countryParam(w, r)
	if !ok {
		return
	}

	usinas, err := h.feed.FetchUsinas(r.Context(), iso3)
	if err != nil {
		h.handleFeedError(w, feed.DatasetEmissoes, iso3, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"country": iso3,
		"owners":  dataset.AlocarEmissoesPorDono(usinas),
	})
}

// CostData responde custos por ano em bilhões de USD.
func (h *Handler) CostData(w http.ResponseWriter, r *http.Request) {
	h.serveSeries(w, r, feed.DatasetCusto, dataset.USDParaBilhoes)
}

// BenefitData responde benefícios por ano em bilhões de USD.
func (h *Handler) BenefitData(w http.ResponseWriter, r *http.Request) {
	h.serveSeries(w, r, feed.DatasetBeneficio, dataset.USDParaBilhoes)
}

func (h *Handler) handleFeedError(w http.ResponseWriter, ds feed.Dataset, iso3 string, err error) {
	switch {
	case errors.Is(err, feed.ErrPaisSemDados):
		WriteDataError(w, http.StatusNotFound, "país sem dados para "+string(ds))
	case errors.Is(err, feed.ErrUpstream):
		log.Warn().Err(err).Str("dataset", string(ds)).Str("pais", iso3).Msg("feed externo indisponível")
		WriteDataError(w, http.StatusBadGateway, "feed externo indisponível")
	default:
		log.Error().Err(err).Str("dataset", string(ds)).Str("pais", iso3).Msg("consulta ao feed falhou")
		WriteDataError(w, http.StatusInternalServerError, "erro interno")
	}
}
