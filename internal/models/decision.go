package models

// TradingDecision is the final output of a run. Date is the trade date in
// YYYY-MM-DD form.
type TradingDecision struct {
	Symbol     string  `json:"symbol"`
	Date       string  `json:"date"`
	Action     string  `json:"action"` // BUY, SELL, HOLD
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}
