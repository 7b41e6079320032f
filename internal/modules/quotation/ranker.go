package quotation

import (
	"sort"

	"github.com/aristath/freightquote/internal/domain"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Badge marks a highlighted offer
type Badge string

const (
	BadgeCheapest Badge = "cheapest"
	BadgeFastest  Badge = "fastest"
)

// FormattedOffer holds display strings for one offer
type FormattedOffer struct {
	Amount         string `json:"amount"`
	QuoteAmount    string `json:"quote_amount"`
	Freight        string `json:"freight"`
	Insurance      string `json:"insurance"`
	Tax            string `json:"tax"`
	TransitDays    string `json:"transit_days"`
	Weight         string `json:"weight"`
	WeightType     string `json:"weight_type"`
	ValidUntil     string `json:"valid_until"`
	HasInsurance   bool   `json:"has_insurance"`
	AmountParsable bool   `json:"amount_parsable"`
}

// RankedOffer is a carrier offer in price order
type RankedOffer struct {
	Position  int            `json:"position"`
	Carrier   domain.Carrier `json:"carrier"`
	Badges    []Badge        `json:"badges"`
	Formatted FormattedOffer `json:"formatted"`
}

// Summary describes the spread of the offers.
// Amount statistics only cover offers with a readable payment amount.
type Summary struct {
	Count          int     `json:"count"`
	PricedCount    int     `json:"priced_count"`
	Currency       string  `json:"currency"`
	MinAmount      float64 `json:"min_amount"`
	MaxAmount      float64 `json:"max_amount"`
	MeanAmount     float64 `json:"mean_amount"`
	MedianAmount   float64 `json:"median_amount"`
	MinTransitDays int     `json:"min_transit_days"`
	MaxTransitDays int     `json:"max_transit_days"`
}

// Ranking is the comparison view of a quotation response
type Ranking struct {
	Empty    bool             `json:"empty"`
	ByPrice  []domain.Carrier `json:"by_price"`
	Cheapest *domain.Carrier  `json:"cheapest"`
	Fastest  *domain.Carrier  `json:"fastest"`
	Offers   []RankedOffer    `json:"offers"`
	Summary  Summary          `json:"summary"`
}

type pricedCarrier struct {
	carrier domain.Carrier
	amount  decimal.Decimal
	ok      bool
}

// Rank orders the carriers of resp by payment amount and picks the cheapest and fastest.
func Rank(resp domain.QuotationResponse) Ranking {
	carriers := resp.Carriers()

	var data domain.QuotationData
	if resp.Data != nil {
		data = *resp.Data
	}

	ranking := Ranking{
		Empty:   len(carriers) == 0,
		ByPrice: []domain.Carrier{},
		Offers:  []RankedOffer{},
		Summary: Summary{Count: len(carriers), Currency: data.CurrencyPayment},
	}
	if ranking.Empty {
		return ranking
	}

	priced := sortByPrice(carriers)
	for _, pc := range priced {
		ranking.ByPrice = append(ranking.ByPrice, pc.carrier)
	}

	cheapest := ranking.ByPrice[0]
	fastest := fastestCarrier(carriers)
	ranking.Cheapest = &cheapest
	ranking.Fastest = &fastest

	measurement := domain.Measurement(data.Measurement)
	for i, pc := range priced {
		var badges []Badge
		if pc.carrier.Code == cheapest.Code {
			badges = append(badges, BadgeCheapest)
		}
		if pc.carrier.Code == fastest.Code && fastest.Code != cheapest.Code {
			badges = append(badges, BadgeFastest)
		}
		if badges == nil {
			badges = []Badge{}
		}

		ranking.Offers = append(ranking.Offers, RankedOffer{
			Position:  i + 1,
			Carrier:   pc.carrier,
			Badges:    badges,
			Formatted: formatOffer(pc, data, measurement),
		})
	}

	ranking.Summary = summarize(priced, data.CurrencyPayment)
	return ranking
}

// sortByPrice stable-sorts carriers by payment amount.
// Unreadable amounts go last in provider order.
func sortByPrice(carriers []domain.Carrier) []pricedCarrier {
	priced := make([]pricedCarrier, len(carriers))
	for i, c := range carriers {
		amount, err := decimal.NewFromString(c.CurrencyPaymentAmount)
		priced[i] = pricedCarrier{carrier: c, amount: amount, ok: err == nil}
	}

	sort.SliceStable(priced, func(i, j int) bool {
		a, b := priced[i], priced[j]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.ok {
			return false
		}
		return a.amount.LessThan(b.amount)
	})
	return priced
}

// fastestCarrier returns the carrier with the fewest transit days, first one on ties
func fastestCarrier(carriers []domain.Carrier) domain.Carrier {
	fastest := carriers[0]
	for _, c := range carriers[1:] {
		if c.TransitDays < fastest.TransitDays {
			fastest = c
		}
	}
	return fastest
}

func summarize(priced []pricedCarrier, currencyCode string) Summary {
	s := Summary{Count: len(priced), Currency: currencyCode}

	amounts := make([]float64, 0, len(priced))
	for i, pc := range priced {
		if i == 0 || pc.carrier.TransitDays < s.MinTransitDays {
			s.MinTransitDays = pc.carrier.TransitDays
		}
		if i == 0 || pc.carrier.TransitDays > s.MaxTransitDays {
			s.MaxTransitDays = pc.carrier.TransitDays
		}
		if pc.ok {
			v, _ := pc.amount.Float64()
			amounts = append(amounts, v)
		}
	}

	s.PricedCount = len(amounts)
	if len(amounts) == 0 {
		return s
	}

	// amounts is already ascending
	s.MinAmount = amounts[0]
	s.MaxAmount = amounts[len(amounts)-1]
	s.MeanAmount = stat.Mean(amounts, nil)
	s.MedianAmount = stat.Quantile(0.5, stat.Empirical, amounts, nil)
	return s
}

func formatOffer(pc pricedCarrier, data domain.QuotationData, m domain.Measurement) FormattedOffer {
	c := pc.carrier
	insurance, err := decimal.NewFromString(c.InsuranceFinal)
	hasInsurance := err == nil && insurance.IsPositive()

	return FormattedOffer{
		Amount:         FormatCurrency(c.CurrencyPaymentAmount, data.CurrencyPayment),
		QuoteAmount:    FormatCurrency(c.CurrencyQuoteAmount, data.CurrencyQuote),
		Freight:        FormatCurrency(c.FreightFinal, data.CurrencyQuote),
		Insurance:      FormatCurrency(c.InsuranceFinal, data.CurrencyQuote),
		Tax:            FormatCurrency(c.TaxFinal, data.CurrencyQuote),
		TransitDays:    FormatTransitDays(c.TransitDays),
		Weight:         FormatWeight(c.WeightDetails.Weight, m),
		WeightType:     WeightTypeLabel(c.WeightDetails.Type),
		ValidUntil:     FormatValidUntil(c.ValidUntil),
		HasInsurance:   hasInsurance,
		AmountParsable: pc.ok,
	}
}
