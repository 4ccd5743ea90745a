package domain

// Greeks is the fair value and sensitivities of one option unit at a single
// market state. Theta is per year of calendar time (dV/dt).
type Greeks struct {
	Value float64 `json:"value"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// Quote is a two-sided market around fair value.
type Quote struct {
	Strike       float64 `json:"strike"`
	DaysToExpiry float64 `json:"days_to_expiry"`
	FairValue    float64 `json:"fair_value"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	Spread       float64 `json:"spread"`
	ThetaPerDay  float64 `json:"theta_per_day"`
	Greeks       Greeks  `json:"greeks"`
}
