package match

// Weights controls how much each scoring signal contributes to the final
// 0-100 score. Percentage-scaled signals multiply their [0,1] factor by the
// weight; location awards flat points from the tier table.
type Weights struct {
	Content       float64 `yaml:"content"`
	Collaborative float64 `yaml:"collaborative"`
	Time          float64 `yaml:"time"`
	Social        float64 `yaml:"social"`
	Recency       float64 `yaml:"recency"`
	Availability  float64 `yaml:"availability"`

	Location LocationPoints `yaml:"location"`
}

// LocationPoints is the flat point table for the location signal.
// Distance bands are fixed (0.5/1/2/5 km); the points per band and for an
// exact text match are tunable.
type LocationPoints struct {
	VeryClose float64 `yaml:"very_close"` // <= 0.5 km
	Close     float64 `yaml:"close"`      // <= 1 km
	Near      float64 `yaml:"near"`       // <= 2 km
	Walkable  float64 `yaml:"walkable"`   // <= 5 km
	TextMatch float64 `yaml:"text_match"` // same campus location label
}

// DefaultWeights returns the tuned production weights.
func DefaultWeights() Weights {
	return Weights{
		Content:       40,
		Collaborative: 25,
		Time:          10,
		Social:        10,
		Recency:       5,
		Availability:  5,
		Location: LocationPoints{
			VeryClose: 15,
			Close:     12,
			Near:      8,
			Walkable:  5,
			TextMatch: 15,
		},
	}
}
