package tradier

import (
	"github.com/bcdannyboy/quantbox/models"
	"github.com/xhhuango/json"
)

type Day struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int     `json:"volume"`
}

type QuoteHistory struct {
	History struct {
		Day []Day `json:"day"`
	} `json:"history"`
}

// Bars flattens the history into estimator input, oldest first.
func (h QuoteHistory) Bars() []models.Bar {
	bars := make([]models.Bar, 0, len(h.History.Day))
	for _, d := range h.History.Day {
		bars = append(bars, models.Bar{Date: d.Date, Open: d.Open, High: d.High, Low: d.Low, Close: d.Close})
	}
	return bars
}

type Quote struct {
	Symbol      string  `json:"symbol"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Last        float64 `json:"last"`
	Bid         float64 `json:"bid"`
	Ask         float64 `json:"ask"`
	Prevclose   float64 `json:"prevclose"`
	TradeDate   int64   `json:"trade_date"`
}

// Quotes handles Tradier's habit of returning a bare object instead of a
// one-element array when a single symbol is requested.
type Quotes struct {
	Quotes struct {
		Quote quoteList `json:"quote"`
	} `json:"quotes"`
}

type quoteList []Quote

func (q *quoteList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var many []Quote
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*q = many
		return nil
	}
	if string(data) == "null" {
		*q = nil
		return nil
	}
	var one Quote
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*q = quoteList{one}
	return nil
}
