package model

// Bar is one provider bar as delivered, before normalization.
type Bar struct {
	High  float64
	Low   float64
	Close float64
}

// TimeSeries maps the provider's timestamp text ("2006-01-02" or
// "2006-01-02 15:04:05") to a bar.
type TimeSeries map[string]Bar

// Series holds parallel newest-first sequences derived from a TimeSeries.
type Series struct {
	Closes []float64
	Highs  []float64
	Lows   []float64
}

// Len returns the number of points in the series.
func (s Series) Len() int { return len(s.Closes) }
