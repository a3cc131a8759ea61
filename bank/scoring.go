package bank

import (
	"fmt"
	"math"
)

type Employment string

const (
	EmploymentEmployed     Employment = "employed"
	EmploymentSelfEmployed Employment = "self_employed"
	EmploymentRetired      Employment = "retired"
	EmploymentUnemployed   Employment = "unemployed"
)

// InterviewAnswers is the complete answer set of the credit interview, in
// question order.
type InterviewAnswers struct {
	MonthlyIncome float64
	Employment    Employment
	FixedExpenses float64
	Dependents    int
	HasDebts      bool
}

// ScoreWeights parameterizes the score formula:
//
//	score = income/(expenses+1) * IncomeFactor
//	      + employment weight + dependents weight + debts weight
//
// truncated to an int and clamped to [0, MaxScore]. The tag defaults are the
// bank's standard weights; DefaultScoreWeights returns the same values.
type ScoreWeights struct {
	IncomeFactor float64 `split_words:"true" default:"30"`

	Employed     float64 `split_words:"true" default:"300"`
	SelfEmployed float64 `split_words:"true" default:"200"`
	Retired      float64 `split_words:"true" default:"150"`
	Unemployed   float64 `split_words:"true" default:"0"`

	NoDependents   float64 `split_words:"true" default:"100"`
	OneDependent   float64 `split_words:"true" default:"80"`
	TwoDependents  float64 `split_words:"true" default:"60"`
	ManyDependents float64 `split_words:"true" default:"30"`

	WithDebts    float64 `split_words:"true" default:"-100"`
	WithoutDebts float64 `split_words:"true" default:"100"`
}

func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		IncomeFactor: 30,

		Employed:     300,
		SelfEmployed: 200,
		Retired:      150,
		Unemployed:   0,

		NoDependents:   100,
		OneDependent:   80,
		TwoDependents:  60,
		ManyDependents: 30,

		WithDebts:    -100,
		WithoutDebts: 100,
	}
}

// Score computes the credit score for one answer set. Monotonic in the
// intuitive directions: more income or fewer expenses never lowers the
// result, open debts never raise it.
func (w ScoreWeights) Score(a InterviewAnswers) int {
	total := a.MonthlyIncome / (a.FixedExpenses + 1) * w.IncomeFactor
	total += w.employmentWeight(a.Employment)
	total += w.dependentsWeight(a.Dependents)
	if a.HasDebts {
		total += w.WithDebts
	} else {
		total += w.WithoutDebts
	}

	score := int(math.Trunc(total))
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

func (w ScoreWeights) employmentWeight(e Employment) float64 {
	switch e {
	case EmploymentEmployed:
		return w.Employed
	case EmploymentSelfEmployed:
		return w.SelfEmployed
	case EmploymentRetired:
		return w.Retired
	default:
		return w.Unemployed
	}
}

func (w ScoreWeights) dependentsWeight(n int) float64 {
	switch {
	case n <= 0:
		return w.NoDependents
	case n == 1:
		return w.OneDependent
	case n == 2:
		return w.TwoDependents
	default:
		return w.ManyDependents
	}
}

// ParseEmployment maps a stored employment label to its enum value.
func ParseEmployment(raw string) (Employment, error) {
	switch Employment(raw) {
	case EmploymentEmployed, EmploymentSelfEmployed, EmploymentRetired, EmploymentUnemployed:
		return Employment(raw), nil
	default:
		return "", fmt.Errorf("unknown employment status %q", raw)
	}
}
