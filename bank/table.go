package bank

import (
	"errors"
	"fmt"
	"sort"
)

// MaxScore is the upper bound of the credit score scale.
const MaxScore = 1000

var (
	ErrEmptyTable    = errors.New("score limit table is empty")
	ErrTableCoverage = errors.New("score limit table does not cover the score range")
)

// ScoreBand maps an inclusive score interval to the highest limit the bank
// grants inside it.
type ScoreBand struct {
	MinScore int     `json:"min_score"`
	MaxScore int     `json:"max_score"`
	MaxLimit float64 `json:"max_limit"`
}

// ScoreLimitTable is the static decision table for limit increases. A valid
// table covers every score in [0, MaxScore] with exactly one band.
type ScoreLimitTable struct {
	bands []ScoreBand
}

// NewScoreLimitTable validates and builds a table. Bands may arrive in any
// order; gaps, overlaps and out-of-range bounds are construction errors.
func NewScoreLimitTable(bands []ScoreBand) (*ScoreLimitTable, error) {
	if len(bands) == 0 {
		return nil, ErrEmptyTable
	}

	sorted := append([]ScoreBand(nil), bands...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinScore < sorted[j].MinScore })

	for i, band := range sorted {
		if band.MinScore > band.MaxScore {
			return nil, fmt.Errorf("%w: band %d has min %d > max %d", ErrTableCoverage, i, band.MinScore, band.MaxScore)
		}
		if band.MaxLimit < 0 {
			return nil, fmt.Errorf("%w: band %d has negative limit", ErrTableCoverage, i)
		}
	}

	if sorted[0].MinScore != 0 {
		return nil, fmt.Errorf("%w: first band starts at %d, want 0", ErrTableCoverage, sorted[0].MinScore)
	}
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.MinScore != prev.MaxScore+1 {
			return nil, fmt.Errorf("%w: band %d starts at %d, want %d", ErrTableCoverage, i, cur.MinScore, prev.MaxScore+1)
		}
	}
	if last := sorted[len(sorted)-1]; last.MaxScore != MaxScore {
		return nil, fmt.Errorf("%w: last band ends at %d, want %d", ErrTableCoverage, last.MaxScore, MaxScore)
	}

	return &ScoreLimitTable{bands: sorted}, nil
}

func MustNewScoreLimitTable(bands []ScoreBand) *ScoreLimitTable {
	table, err := NewScoreLimitTable(bands)
	if err != nil {
		panic(err)
	}
	return table
}

// DefaultScoreLimitTable returns the stock five-band table. Deployments load
// their own bands from seed data or the database.
func DefaultScoreLimitTable() *ScoreLimitTable {
	return MustNewScoreLimitTable([]ScoreBand{
		{MinScore: 0, MaxScore: 299, MaxLimit: 1000},
		{MinScore: 300, MaxScore: 499, MaxLimit: 3000},
		{MinScore: 500, MaxScore: 699, MaxLimit: 5000},
		{MinScore: 700, MaxScore: 849, MaxLimit: 8000},
		{MinScore: 850, MaxScore: 1000, MaxLimit: 15000},
	})
}

// MaxLimitFor returns the limit ceiling for a score.
func (t *ScoreLimitTable) MaxLimitFor(score int) (float64, error) {
	if score < 0 || score > MaxScore {
		return 0, fmt.Errorf("%w: %d", ErrScoreOutOfRange, score)
	}
	idx := sort.Search(len(t.bands), func(i int) bool { return t.bands[i].MaxScore >= score })
	if idx >= len(t.bands) {
		return 0, fmt.Errorf("%w: %d", ErrScoreOutOfRange, score)
	}
	return t.bands[idx].MaxLimit, nil
}

// Bands returns a copy of the validated, sorted bands.
func (t *ScoreLimitTable) Bands() []ScoreBand {
	return append([]ScoreBand(nil), t.bands...)
}
