package dataset

import (
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics of a dataset.
type Summary struct {
	Username string
	Games    int
	Wins     int
	Draws    int
	Losses   int
	AsWhite  int
	AsBlack  int

	// Score is the mean player_result.
	Score float64

	EloDiffMean   float64
	EloDiffStdDev float64
	LengthMean    float64
	LengthStdDev  float64
}

// Summarize computes descriptive statistics over ds.
func Summarize(ds *Dataset) Summary {
	s := Summary{Username: ds.Username, Games: ds.Len()}
	if s.Games == 0 {
		return s
	}

	for i, r := range ds.PlayerResult {
		switch r {
		case 1:
			s.Wins++
		case 0.5:
			s.Draws++
		default:
			s.Losses++
		}
		if ds.PlayerColour[i] == White {
			s.AsWhite++
		} else {
			s.AsBlack++
		}
	}
	s.Score = stat.Mean(ds.PlayerResult, nil)

	var diffs []float64
	for _, d := range ds.EloDifference {
		if d != nil {
			diffs = append(diffs, float64(*d))
		}
	}
	s.EloDiffMean, s.EloDiffStdDev = meanStdDev(diffs)

	lengths := make([]float64, len(ds.GameLength))
	for i, l := range ds.GameLength {
		lengths[i] = float64(l)
	}
	s.LengthMean, s.LengthStdDev = meanStdDev(lengths)

	return s
}

// meanStdDev returns 0, 0 for an empty sample and a zero deviation for a
// single value.
func meanStdDev(x []float64) (mean, std float64) {
	switch len(x) {
	case 0:
		return 0, 0
	case 1:
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}
