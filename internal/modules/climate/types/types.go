package types

import "encoding/json"

// Precipitation is one measurement's rainfall. Prcp is nil when the dataset
// has no value for that day.
type Precipitation struct {
	Date string   `json:"date"`
	Prcp *float64 `json:"prcp"`
}

// Station encodes as a [station_id, name] pair.
type Station struct {
	ID   string
	Name string
}

func (s Station) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{s.ID, s.Name})
}

// TemperatureObservation encodes as a [date, tobs] pair.
type TemperatureObservation struct {
	Date string
	Tobs float64
}

func (o TemperatureObservation) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{o.Date, o.Tobs})
}

// TemperatureStats is the min/avg/max of observed temperatures over a date
// window. Date is the earliest date inside the window. It encodes as a
// [date, min, avg, max] tuple.
type TemperatureStats struct {
	Date string
	Min  float64
	Avg  float64
	Max  float64
}

func (s TemperatureStats) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]any{s.Date, s.Min, s.Avg, s.Max})
}
