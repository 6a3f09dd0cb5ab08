// Package personality classifies spending behaviour along two axes,
// planning and saving, into one of four animal types.
package personality

import (
	"math"

	"github.com/pkg/errors"

	"github.com/dvloznov/spending-patterns/internal/domain"
	"github.com/dvloznov/spending-patterns/internal/stats"
)

// Type is a personality code.
type Type string

const (
	Ant      Type = "ANT"
	Fox      Type = "FOX"
	Squirrel Type = "SQUIRREL"
	Lion     Type = "LION"
	Unknown  Type = "Unknown"
)

// Scores are the two axis scores, each in [0, 1].
type Scores struct {
	Planning float64 `json:"planning"`
	Saving   float64 `json:"saving"`
}

// NeutralScores is reported when no classification is possible.
var NeutralScores = Scores{Planning: 0.5, Saving: 0.5}

// Scoring constants.
const (
	repeatVisits       = 3      // visits for a merchant to count as a habit
	hourStdScale       = 12.0   // hour std at which time regularity reaches 0
	amountScale        = 100000 // mean expense at which the amount score reaches 0
	monthlyCountScale  = 100.0  // monthly transactions at which the frequency score reaches 0
	neutralSubScore    = 0.5
	planningTimeWeight = 0.5
	savingAmountWeight = 0.6
)

var errNoExpenses = errors.New("no expense transactions")

// Score computes both axes over expense rows holding positive magnitudes.
func Score(expenses domain.Table) (Scores, error) {
	if expenses.Empty() {
		return Scores{}, errNoExpenses
	}
	return Scores{
		Planning: PlanningScore(expenses),
		Saving:   SavingScore(expenses),
	}, nil
}

// PlanningScore is high for regular hours and habitual merchants.
func PlanningScore(expenses domain.Table) float64 {
	if expenses.Empty() {
		return neutralSubScore
	}

	hours := make([]float64, len(expenses))
	for i, tx := range expenses {
		hours[i] = float64(tx.Timestamp.Hour())
	}
	timeScore := 1.0
	if std := stats.StdDev(hours); !math.IsNaN(std) && std != 0 {
		timeScore = 1.0 - math.Min(1.0, std/hourStdScale)
	}

	score := planningTimeWeight*timeScore + (1-planningTimeWeight)*merchantRepeatRatio(expenses)
	return stats.Clamp(score, 0, 1)
}

// merchantRepeatRatio is the share of merchants visited at least repeatVisits
// times. Tables without any merchant text score neutral.
func merchantRepeatRatio(expenses domain.Table) float64 {
	visits := make(map[string]int)
	for _, tx := range expenses {
		if tx.Description == "" {
			continue
		}
		visits[tx.Description]++
	}
	if len(visits) == 0 {
		return neutralSubScore
	}
	repeat := 0
	for _, n := range visits {
		if n >= repeatVisits {
			repeat++
		}
	}
	return float64(repeat) / float64(len(visits))
}

// SavingScore is high for small and infrequent expenses.
func SavingScore(expenses domain.Table) float64 {
	if expenses.Empty() {
		return neutralSubScore
	}

	amounts := make([]float64, len(expenses))
	for i, tx := range expenses {
		amounts[i] = math.Abs(float64(tx.Amount))
	}
	amountScore := 1.0 - math.Min(1.0, stats.Mean(amounts)/amountScale)

	frequencyScore := neutralSubScore
	if days := expenses.SpanDays(); days > 0 {
		monthly := float64(len(expenses)) / (float64(days) / 30)
		frequencyScore = 1.0 - math.Min(1.0, monthly/monthlyCountScale)
	}

	score := savingAmountWeight*amountScore + (1-savingAmountWeight)*frequencyScore
	return stats.Clamp(score, 0, 1)
}

// DetermineType maps the axis scores to a type. 0.5 counts as high on both axes.
func DetermineType(s Scores) Type {
	planner := s.Planning >= 0.5
	saver := s.Saving >= 0.5
	switch {
	case planner && saver:
		return Ant
	case planner:
		return Fox
	case saver:
		return Squirrel
	default:
		return Lion
	}
}
