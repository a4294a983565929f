package domain

type PricePredictionRequest struct {
	City          string  `json:"city"`
	Country       string  `json:"country"`
	Longitude     float64 `json:"longitude"`
	Latitude      float64 `json:"latitude"`
	SqM           int     `json:"sqm"`
	TotalRooms    int     `json:"total_rooms"`
	NombreEtoiles int     `json:"nombre_etoiles"`
}

type PricePrediction struct {
	Type     TypeOfRental `json:"type"`
	PriceWei int64        `json:"price_wei"`
	PriceEth float64      `json:"price_eth"`
}

type HeatmapPoint struct {
	Neighborhood     string  `json:"neighborhood"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	CurrentAvgPrice  float64 `json:"current_avg_price"`
	TrendStatus      string  `json:"trend_status"`
	TrendDescription string  `json:"trend_description"`
}

type Heatmap struct {
	RentalType TypeOfRental   `json:"rental_type"`
	Data       []HeatmapPoint `json:"data"`
}
