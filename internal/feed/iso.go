package feed

import "strings"

// iso2to3 cobre os países presentes nos conjuntos de dados do painel.
var iso2to3 = map[string]string{
	"AR": "ARG",
	"AU": "AUS",
	"BD": "BGD",
	"BG": "BGR",
	"BR": "BRA",
	"BW": "BWA",
	"CA": "CAN",
	"CL": "CHL",
	"CN": "CHN",
	"CO": "COL",
	"CZ": "CZE",
	"DE": "DEU",
	"EG": "EGY",
	"ES": "ESP",
	"FR": "FRA",
	"GB": "GBR",
	"GR": "GRC",
	"HU": "HUN",
	"ID": "IDN",
	"IN": "IND",
	"IT": "ITA",
	"JP": "JPN",
	"KR": "KOR",
	"KZ": "KAZ",
	"LA": "LAO",
	"MA": "MAR",
	"MN": "MNG",
	"MX": "MEX",
	"MY": "MYS",
	"MZ": "MOZ",
	"NG": "NGA",
	"NL": "NLD",
	"PH": "PHL",
	"PK": "PAK",
	"PL": "POL",
	"PT": "PRT",
	"RO": "ROU",
	"RS": "SRB",
	"RU": "RUS",
	"SI": "SVN",
	"SK": "SVK",
	"TH": "THA",
	"TR": "TUR",
	"TW": "TWN",
	"UA": "UKR",
	"US": "USA",
	"UZ": "UZB",
	"VN": "VNM",
	"ZA": "ZAF",
	"ZM": "ZMB",
	"ZW": "ZWE",
}

// ConvertToISO3 normaliza códigos de país. Códigos de 2 letras conhecidos
// viram ISO3; códigos de 3 letras passam maiúsculos; um código de 2 letras
// fora do mapa devolve a entrada maiúscula (fallback documentado, não uma
// falha silenciosa).
func ConvertToISO3(code string) string {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if len(normalized) == 2 {
		if iso3, ok := iso2to3[normalized]; ok {
			return iso3
		}
	}
	return normalized
}
