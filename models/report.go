package models

// CityStats holds the computed price-per-unit-area figures for one city.
type CityStats struct {
	City          string
	Failed        bool
	FailureReason string
	RowsIn        int
	RowsOut       int
	Warnings      int
	AreaColumn    string
	HasMetric     bool
	AveragePPUA   float64
	MedianPPUA    float64
	MinPPUA       float64
	MaxPPUA       float64
}

// BatchReport holds the outcome of one batch run over all cities.
type BatchReport struct {
	TotalCities  int
	FailedCities int
	TotalRowsIn  int
	TotalRowsOut int
	Cities       []*CityStats
}
