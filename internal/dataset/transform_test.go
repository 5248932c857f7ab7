package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/painelclima/api/internal/feed"
)

func ptr(v float64) *float64 { return &v }

func TestSerieParaLinhasOrdenaEPreservaNulos(t *testing.T) {
	serie := feed.Serie{
		"2021": ptr(4.5),
		"2019": ptr(1.0),
		"2020": nil,
	}

	linhas := SerieParaLinhas(serie)
	if len(linhas) != 3 {
		t.Fatalf("esperadas 3 linhas, obtidas %d", len(linhas))
	}
	if linhas[0].Ano != "2019" || linhas[1].Ano != "2020" || linhas[2].Ano != "2021" {
		t.Fatalf("anos fora de ordem: %+v", linhas)
	}
	if linhas[1].Valor != nil {
		t.Fatalf("valor nulo deveria seguir nulo, obtido %v", *linhas[1].Valor)
	}
	if *linhas[2].Valor != 4.5 {
		t.Fatalf("valor de 2021 esperado 4.5, obtido %v", *linhas[2].Valor)
	}
}

func TestAlocarEmissoesPorDono(t *testing.T) {
	usinas := []feed.Usina{
		{
			Nome: "Usina A",
			Proprietarios: []feed.Participante{
				{Nome: "Acme", Fracao: 0.6},
				{Nome: "Beta", Fracao: 0.4},
			},
			Emissoes: feed.Serie{"2020": ptr(1_000_000)},
		},
		{
			Nome: "Usina B",
			Proprietarios: []feed.Participante{
				{Nome: "Acme", Fracao: 1.0},
			},
			Emissoes: feed.Serie{"2020": ptr(2_000_000), "2021": nil},
		},
	}

	donos := AlocarEmissoesPorDono(usinas)
	if len(donos) != 2 {
		t.Fatalf("esperados 2 donos, obtidos %d", len(donos))
	}

	// Ordenado por total decrescente: Acme (0.6 + 2.0 Mt) antes de Beta.
	acme := donos[0]
	if acme.Dono != "Acme" {
		t.Fatalf("maior emissor esperado Acme, obtido %s", acme.Dono)
	}
	if math.Abs(acme.TotalMt-2.6) > 1e-9 {
		t.Fatalf("total de Acme esperado 2.6 Mt, obtido %v", acme.TotalMt)
	}
	if acme.UsinasN != 2 {
		t.Fatalf("Acme participa de 2 usinas, obtido %d", acme.UsinasN)
	}

	beta := donos[1]
	if math.Abs(beta.TotalMt-0.4) > 1e-9 {
		t.Fatalf("total de Beta esperado 0.4 Mt, obtido %v", beta.TotalMt)
	}
	if beta.UsinasN != 1 {
		t.Fatalf("Beta participa de 1 usina, obtido %d", beta.UsinasN)
	}
}

func TestAlocarEmissoesIgnoraFracaoInvalida(t *testing.T) {
	usinas := []feed.Usina{
		{
			Nome: "Usina A",
			Proprietarios: []feed.Participante{
				{Nome: "Fantasma", Fracao: 0},
				{Nome: "Negativo", Fracao: -0.5},
			},
			Emissoes: feed.Serie{"2020": ptr(1_000_000)},
		},
	}

	if donos := AlocarEmissoesPorDono(usinas); len(donos) != 0 {
		t.Fatalf("frações não positivas deveriam ser ignoradas: %+v", donos)
	}
}

func TestConversoesDeUnidade(t *testing.T) {
	if got := MWParaGW(1500); got != 1.5 {
		t.Errorf("MWParaGW(1500) = %v", got)
	}
	if got := ToneladasParaMt(3_000_000); got != 3.0 {
		t.Errorf("ToneladasParaMt(3e6) = %v", got)
	}
	if got := USDParaBilhoes(2_500_000_000); got != 2.5 {
		t.Errorf("USDParaBilhoes(2.5e9) = %v", got)
	}
}

func TestConverterSeriePreservaNulos(t *testing.T) {
	serie := feed.Serie{"2020": ptr(1000), "2021": nil}

	convertida := ConverterSerie(serie, MWParaGW)
	if *convertida["2020"] != 1.0 {
		t.Fatalf("2020 esperado 1.0, obtido %v", *convertida["2020"])
	}
	if convertida["2021"] != nil {
		t.Fatal("nulo deveria atravessar a conversão")
	}
}

func TestExportarLinhasCSV(t *testing.T) {
	linhas := []LinhaAno{
		{Ano: "2019", Valor: ptr(1.5)},
		{Ano: "2020", Valor: nil},
		{Ano: "2021", Valor: ptr(2.25)},
	}

	exp, err := ExportarLinhas(linhas, FormatoCSV, "capacity_ind")
	if err != nil {
		t.Fatalf("exportar csv: %v", err)
	}
	if exp.ContentType != "text/csv" || exp.NomeArquivo != "capacity_ind.csv" {
		t.Fatalf("metadados inesperados: %+v", exp)
	}

	conteudo := string(exp.Conteudo)
	esperado := "year,value\n2019,1.5\n2020,\n2021,2.25\n"
	if conteudo != esperado {
		t.Fatalf("csv esperado %q, obtido %q", esperado, conteudo)
	}
}

func TestExportarLinhasJSON(t *testing.T) {
	linhas := []LinhaAno{{Ano: "2020", Valor: ptr(1.0)}}

	exp, err := ExportarLinhas(linhas, FormatoJSON, "emission_bra")
	if err != nil {
		t.Fatalf("exportar json: %v", err)
	}
	if exp.ContentType != "application/json" || exp.NomeArquivo != "emission_bra.json" {
		t.Fatalf("metadados inesperados: %+v", exp)
	}
	if !strings.Contains(string(exp.Conteudo), `"year": "2020"`) {
		t.Fatalf("json sem o ano esperado: %s", exp.Conteudo)
	}
}

func TestExportarLinhasFormatoDesconhecido(t *testing.T) {
	if _, err := ExportarLinhas(nil, "xml", "x"); err == nil {
		t.Fatal("formato desconhecido deveria falhar")
	}
}
