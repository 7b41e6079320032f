package quotation

import (
	"regexp"
	"strconv"
	"strings"
)

// Envelope is a document envelope preset
type Envelope struct {
	Value      string `json:"value"`
	Label      string `json:"label"`
	Dimensions string `json:"dimensions"`
}

// Country is a selectable country
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Division is a state, district or province
type Division struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CountryDivisions lists the divisions of a country under a localized label
type CountryDivisions struct {
	Label     string     `json:"label"`
	Divisions []Division `json:"divisions"`
}

var envelopes = []Envelope{
	{Value: "envelope_a4", Label: "Envelope A4", Dimensions: "22 x 31 cm"},
	{Value: "envelope_a3", Label: "Envelope A3", Dimensions: "31 x 42 cm"},
	{Value: "envelope_oficio", Label: "Envelope Ofício", Dimensions: "24 x 34 cm"},
	{Value: "envelope_carta", Label: "Envelope Carta", Dimensions: "11.4 x 22.9 cm"},
	{Value: "envelope_saco", Label: "Envelope Saco", Dimensions: "26 x 36 cm"},
}

var countries = []Country{
	{Code: "BR", Name: "Brasil"},
	{Code: "PT", Name: "Portugal"},
	{Code: "US", Name: "Estados Unidos"},
	{Code: "AR", Name: "Argentina"},
	{Code: "CA", Name: "Canadá"},
	{Code: "CL", Name: "Chile"},
	{Code: "DE", Name: "Alemanha"},
	{Code: "ES", Name: "Espanha"},
	{Code: "FR", Name: "França"},
	{Code: "GB", Name: "Reino Unido"},
	{Code: "IT", Name: "Itália"},
	{Code: "MX", Name: "México"},
}

var divisionsByCountry = map[string]CountryDivisions{
	"BR": {
		Label: "Estado",
		Divisions: []Division{
			{"AC", "Acre"}, {"AL", "Alagoas"}, {"AP", "Amapá"}, {"AM", "Amazonas"},
			{"BA", "Bahia"}, {"CE", "Ceará"}, {"DF", "Distrito Federal"}, {"ES", "Espírito Santo"},
			{"GO", "Goiás"}, {"MA", "Maranhão"}, {"MT", "Mato Grosso"}, {"MS", "Mato Grosso do Sul"},
			{"MG", "Minas Gerais"}, {"PA", "Pará"}, {"PB", "Paraíba"}, {"PR", "Paraná"},
			{"PE", "Pernambuco"}, {"PI", "Piauí"}, {"RJ", "Rio de Janeiro"}, {"RN", "Rio Grande do Norte"},
			{"RS", "Rio Grande do Sul"}, {"RO", "Rondônia"}, {"RR", "Roraima"}, {"SC", "Santa Catarina"},
			{"SP", "São Paulo"}, {"SE", "Sergipe"}, {"TO", "Tocantins"},
		},
	},
	"PT": {
		Label: "Distrito",
		Divisions: []Division{
			{"01", "Aveiro"}, {"02", "Beja"}, {"03", "Braga"}, {"04", "Bragança"},
			{"05", "Castelo Branco"}, {"06", "Coimbra"}, {"07", "Évora"}, {"08", "Faro"},
			{"09", "Guarda"}, {"10", "Leiria"}, {"11", "Lisboa"}, {"12", "Portalegre"},
			{"13", "Porto"}, {"14", "Santarém"}, {"15", "Setúbal"}, {"16", "Viana do Castelo"},
			{"17", "Vila Real"}, {"18", "Viseu"}, {"20", "Região Autónoma dos Açores"},
			{"30", "Região Autónoma da Madeira"},
		},
	},
	"US": {
		Label: "Estado",
		Divisions: []Division{
			{"AL", "Alabama"}, {"AK", "Alaska"}, {"AZ", "Arizona"}, {"AR", "Arkansas"},
			{"CA", "California"}, {"CO", "Colorado"}, {"CT", "Connecticut"}, {"DE", "Delaware"},
			{"DC", "District of Columbia"}, {"FL", "Florida"}, {"GA", "Georgia"}, {"HI", "Hawaii"},
			{"ID", "Idaho"}, {"IL", "Illinois"}, {"IN", "Indiana"}, {"IA", "Iowa"},
			{"KS", "Kansas"}, {"KY", "Kentucky"}, {"LA", "Louisiana"}, {"ME", "Maine"},
			{"MD", "Maryland"}, {"MA", "Massachusetts"}, {"MI", "Michigan"}, {"MN", "Minnesota"},
			{"MS", "Mississippi"}, {"MO", "Missouri"}, {"MT", "Montana"}, {"NE", "Nebraska"},
			{"NV", "Nevada"}, {"NH", "New Hampshire"}, {"NJ", "New Jersey"}, {"NM", "New Mexico"},
			{"NY", "New York"}, {"NC", "North Carolina"}, {"ND", "North Dakota"}, {"OH", "Ohio"},
			{"OK", "Oklahoma"}, {"OR", "Oregon"}, {"PA", "Pennsylvania"}, {"RI", "Rhode Island"},
			{"SC", "South Carolina"}, {"SD", "South Dakota"}, {"TN", "Tennessee"}, {"TX", "Texas"},
			{"UT", "Utah"}, {"VT", "Vermont"}, {"VA", "Virginia"}, {"WA", "Washington"},
			{"WV", "West Virginia"}, {"WI", "Wisconsin"}, {"WY", "Wyoming"},
		},
	},
}

var dimensionPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Envelopes returns the envelope presets
func Envelopes() []Envelope {
	out := make([]Envelope, len(envelopes))
	copy(out, envelopes)
	return out
}

// FindEnvelope looks up an envelope preset by value
func FindEnvelope(value string) (Envelope, bool) {
	for _, e := range envelopes {
		if e.Value == value {
			return e, true
		}
	}
	return Envelope{}, false
}

// Size parses the first two numbers of the dimension text ("22 x 31 cm" -> 22, 31)
func (e Envelope) Size() (width, depth float64, ok bool) {
	matches := dimensionPattern.FindAllString(e.Dimensions, -1)
	if len(matches) < 2 {
		return 0, 0, false
	}
	width, err := strconv.ParseFloat(matches[0], 64)
	if err != nil {
		return 0, 0, false
	}
	depth, err = strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return width, depth, true
}

// Countries returns the selectable countries
func Countries() []Country {
	out := make([]Country, len(countries))
	copy(out, countries)
	return out
}

// DivisionsByCountry returns the divisions of a country, matched case-insensitively
func DivisionsByCountry(code string) (CountryDivisions, bool) {
	d, ok := divisionsByCountry[strings.ToUpper(strings.TrimSpace(code))]
	return d, ok
}
