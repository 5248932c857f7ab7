package dataset

import (
	"sort"

	"github.com/painelclima/api/internal/feed"
)

// LinhaAno é o formato consumido pelos gráficos: um registro por ano.
type LinhaAno struct {
	Ano   string   `json:"year"`
	Valor *float64 `json:"value"`
}

// SerieParaLinhas converte a série ano→valor em linhas ordenadas por ano.
// Valores nulos (NaN do upstream) são preservados como null para que o
// gráfico desenhe a lacuna em vez de zero.
func SerieParaLinhas(serie feed.Serie) []LinhaAno {
	anos := make([]string, 0, len(serie))
	for ano := range serie {
		anos = append(anos, ano)
	}
	sort.Strings(anos)

	linhas := make([]LinhaAno, 0, len(anos))
	for _, ano := range anos {
		linhas = append(linhas, LinhaAno{Ano: ano, Valor: serie[ano]})
	}
	return linhas
}

// EmissaoPorDono agrega emissões alocadas a um proprietário.
type EmissaoPorDono struct {
	Dono    string             `json:"owner"`
	PorAno  map[string]float64 `json:"by_year"`
	TotalMt float64            `json:"total_mt"`
	UsinasN int                `json:"plants"`
}

// AlocarEmissoesPorDono aloca as emissões de cada usina aos proprietários
// proporcionalmente à participação, agregando por dono. Entrada em tCO₂,
// saída em MtCO₂.
func AlocarEmissoesPorDono(usinas []feed.Usina) []EmissaoPorDono {
	porDono := make(map[string]*EmissaoPorDono)
	usinasPorDono := make(map[string]map[string]struct{})

	for _, usina := range usinas {
		for _, p := range usina.Proprietarios {
			if p.Fracao <= 0 {
				continue
			}
			entry, ok := porDono[p.Nome]
			if !ok {
				entry = &EmissaoPorDono{Dono: p.Nome, PorAno: make(map[string]float64)}
				porDono[p.Nome] = entry
				usinasPorDono[p.Nome] = make(map[string]struct{})
			}
			usinasPorDono[p.Nome][usina.Nome] = struct{}{}

			for ano, valor := range usina.Emissoes {
				if valor == nil {
					continue
				}
				alocado := ToneladasParaMt(*valor * p.Fracao)
				entry.PorAno[ano] += alocado
				entry.TotalMt += alocado
			}
		}
	}

	resultado := make([]EmissaoPorDono, 0, len(porDono))
	for nome, entry := range porDono {
		entry.UsinasN = len(usinasPorDono[nome])
		resultado = append(resultado, *entry)
	}
	sort.Slice(resultado, func(i, j int) bool {
		if resultado[i].TotalMt != resultado[j].TotalMt {
			return resultado[i].TotalMt > resultado[j].TotalMt
		}
		return resultado[i].Dono < resultado[j].Dono
	})
	return resultado
}

// MWParaGW converte capacidade de MW para GW.
func MWParaGW(mw float64) float64 {
	return mw / 1000
}

// ToneladasParaMt converte tCO₂ para MtCO₂.
func ToneladasParaMt(toneladas float64) float64 {
	return toneladas / 1e6
}

// USDParaBilhoes converte USD para bilhões de USD.
func USDParaBilhoes(usd float64) float64 {
	return usd / 1e9
}

// ConverterSerie aplica uma conversão de unidade preservando nulos.
func ConverterSerie(serie feed.Serie, conv func(float64) float64) feed.Serie {
	convertida := make(feed.Serie, len(serie))
	for ano, valor := range serie {
		if valor == nil {
			convertida[ano] = nil
			continue
		}
		v := conv(*valor)
		convertida[ano] = &v
	}
	return convertida
}
