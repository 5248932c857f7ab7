package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
)

// Formatos de exportação aceitos pelas rotas de download.
const (
	FormatoCSV  = "csv"
	FormatoJSON = "json"
)

// Exportacao embala o arquivo gerado com seus metadados de entrega.
type Exportacao struct {
	Conteudo    []byte
	ContentType string
	NomeArquivo string
}

// ExportarLinhas serializa linhas ano/valor no formato pedido.
func ExportarLinhas(linhas []LinhaAno, formato, nomeBase string) (*Exportacao, error) {
	switch formato {
	case FormatoJSON:
		payload, err := json.MarshalIndent(linhas, "", "  ")
		if err != nil {
			return nil, err
		}
		return &Exportacao{
			Conteudo:    payload,
			ContentType: "application/json",
			NomeArquivo: nomeBase + ".json",
		}, nil
	case FormatoCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write([]string{"year", "value"}); err != nil {
			return nil, err
		}
		for _, linha := range linhas {
			valor := ""
			if linha.Valor != nil {
				valor = strconv.FormatFloat(*linha.Valor, 'f', -1, 64)
			}
			if err := w.Write([]string{linha.Ano, valor}); err != nil {
				return nil, err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		return &Exportacao{
			Conteudo:    buf.Bytes(),
			ContentType: "text/csv",
			NomeArquivo: nomeBase + ".csv",
		}, nil
	default:
		return nil, fmt.Errorf("formato não suportado: %s", formato)
	}
}
