package domain

// Measurement is a custom labelled measurement of a property document
type Measurement struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// PropertyDocument describes one scrutinised property. It lives in the draft only.
type PropertyDocument struct {
	ID                 string        `json:"id"`
	DocNo              string        `json:"docNo"`
	SurveyNo           string        `json:"surveyNo"`
	AsPerRevenueRecord string        `json:"asPerRevenueRecord"`
	TotalExtent        string        `json:"totalExtent"`
	PlotNo             string        `json:"plotNo"`
	Location           string        `json:"location"`
	NorthBy            string        `json:"northBy"`
	SouthBy            string        `json:"southBy"`
	EastBy             string        `json:"eastBy"`
	WestBy             string        `json:"westBy"`
	NorthMeasurement   string        `json:"northMeasurement"`
	SouthMeasurement   string        `json:"southMeasurement"`
	EastMeasurement    string        `json:"eastMeasurement"`
	WestMeasurement    string        `json:"westMeasurement"`
	TotalExtentSqFt    string        `json:"totalExtentSqFt"`
	CustomMeasurements []Measurement `json:"customMeasurements"`
}
