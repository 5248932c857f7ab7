package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/painelclima/api/internal/dataset"
	"github.com/painelclima/api/internal/feed"
	"github.com/painelclima/api/internal/storage"
)

// conversões por conjunto, as mesmas das rotas de dados.
var exportConversores = map[feed.Dataset]func(float64) float64{
	feed.DatasetCapacidade: dataset.MWParaGW,
	feed.DatasetEmissoes:   dataset.ToneladasParaMt,
	feed.DatasetCusto:      dataset.USDParaBilhoes,
	feed.DatasetBeneficio:  dataset.USDParaBilhoes,
}

// ExportDataset gera CSV ou JSON da série pedida e entrega como download.
// Quando há um bucket configurado, arquiva uma cópia antes de responder.
func (h *Handler) ExportDataset(w http.ResponseWriter, r *http.Request) {
	ds, ok := feed.ValidDataset(r.URL.Query().Get("dataset"))
	if !ok {
		WriteDataError(w, http.StatusBadRequest, "parâmetro dataset inválido")
		return
	}

	formato := strings.ToLower(r.URL.Query().Get("format"))
	if formato == "" {
		formato = dataset.FormatoCSV
	}
	if formato != dataset.FormatoCSV && formato != dataset.FormatoJSON {
		WriteDataError(w, http.StatusBadRequest, "formato deve ser csv ou json")
		return
	}

	iso3, ok := countryParam(w, r)
	if !ok {
		return
	}

	serie, err := h.feed.FetchSeries(r.Context(), ds, iso3)
	if err != nil {
		h.handleFeedError(w, ds, iso3, err)
		return
	}
	if conv := exportConversores[ds]; conv != nil {
		serie = dataset.ConverterSerie(serie, conv)
	}

	nomeBase := fmt.Sprintf("%s_%s", ds, strings.ToLower(iso3))
	exp, err := dataset.ExportarLinhas(dataset.SerieParaLinhas(serie), formato, nomeBase)
	if err != nil {
		log.Error().Err(err).Str("dataset", string(ds)).Msg("exportação falhou")
		WriteDataError(w, http.StatusInternalServerError, "erro interno")
		return
	}

	h.arquivarExport(r, exp)

	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+exp.NomeArquivo+"\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exp.Conteudo)
}

// arquivarExport guarda uma cópia no bucket. Falha de arquivamento não
// impede o download.
func (h *Handler) arquivarExport(r *http.Request, exp *dataset.Exportacao) {
	res, err := h.arquivador.Guardar(r.Context(), storage.Arquivo{
		Chave:       "exports/" + exp.NomeArquivo,
		Conteudo:    exp.Conteudo,
		ContentType: exp.ContentType,
	})
	if err != nil {
		if !errors.Is(err, storage.ErrSemBackend) {
			log.Warn().Err(err).Str("arquivo", exp.NomeArquivo).Msg("arquivamento da exportação falhou")
		}
		return
	}
	log.Info().Str("arquivo", exp.NomeArquivo).Str("url", res.URL).Msg("exportação arquivada")
}
