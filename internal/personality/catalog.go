package personality

import (
	"github.com/dvloznov/spending-patterns/internal/stats"
)

// Personality describes one type for display.
type Personality struct {
	Code        Type     `json:"type"`
	Animal      string   `json:"animal"`
	Name        string   `json:"name"`
	Emoji       string   `json:"emoji"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
	Traits      []string `json:"traits"`
	Strength    string   `json:"strength"`
	Weakness    string   `json:"weakness"`
	Advice      string   `json:"advice"`
}

// Result is a Personality together with the scores that selected it.
type Result struct {
	Personality
	Scores Scores `json:"scores"`
}

// WithScores builds a Result, rounding the scores to two decimals.
func (p Personality) WithScores(s Scores) Result {
	return Result{
		Personality: p,
		Scores: Scores{
			Planning: stats.RoundTo(s.Planning, 2),
			Saving:   stats.RoundTo(s.Saving, 2),
		},
	}
}

var catalog = map[Type]Personality{
	Ant: {
		Code:        Ant,
		Animal:      "Ant",
		Name:        "Steady Saver",
		Emoji:       "🐜",
		Image:       "/images/personality/ant.png",
		Description: "You spend on a routine and keep each purchase small. Money rarely surprises you.",
		Traits:      []string{"Shops at the same places", "Keeps regular hours", "Small average purchase"},
		Strength:    "Predictable budget that leaves room to save every month.",
		Weakness:    "Can miss out on experiences that are worth the money.",
		Advice:      "Set aside a small fun budget so saving stays sustainable.",
	},
	Fox: {
		Code:        Fox,
		Animal:      "Fox",
		Name:        "Strategic Spender",
		Emoji:       "🦊",
		Image:       "/images/personality/fox.png",
		Description: "You plan where your money goes, and you are willing to spend big when it counts.",
		Traits:      []string{"Regular habits", "Large planned purchases", "Knows the favourite shops"},
		Strength:    "Spending follows deliberate choices rather than impulse.",
		Weakness:    "Large tickets add up quickly even when each one is planned.",
		Advice:      "Review your biggest recurring costs once a month and cut one.",
	},
	Squirrel: {
		Code:        Squirrel,
		Animal:      "Squirrel",
		Name:        "Spontaneous Saver",
		Emoji:       "🐿️",
		Image:       "/images/personality/squirrel.png",
		Description: "You keep purchases small but buy whenever the mood strikes, at all hours.",
		Traits:      []string{"Small purchases", "Irregular hours", "Many different shops"},
		Strength:    "Low amounts keep the damage of impulse buys limited.",
		Weakness:    "Frequent small buys are easy to lose track of.",
		Advice:      "Check your late-night and weekend purchases for easy wins.",
	},
	Lion: {
		Code:        Lion,
		Animal:      "Lion",
		Name:        "Bold Spender",
		Emoji:       "🦁",
		Image:       "/images/personality/lion.png",
		Description: "You spend freely and on impulse, and your purchases tend to be large.",
		Traits:      []string{"Large purchases", "Irregular hours", "Tries new places"},
		Strength:    "You enjoy your money and are not afraid to use it.",
		Weakness:    "Without a plan, monthly totals can run away.",
		Advice:      "Set overspending rules for your two largest categories.",
	},
	Unknown: {
		Code:        Unknown,
		Animal:      "Unknown",
		Name:        "Not enough data",
		Emoji:       "❓",
		Image:       "/images/personality/unknown.png",
		Description: "There are not enough expense transactions to analyze your spending personality yet.",
		Traits:      []string{},
		Strength:    "",
		Weakness:    "",
		Advice:      "Upload more transactions and try again.",
	},
}

// Lookup returns the personality for code, or the Unknown entry.
func Lookup(code Type) Personality {
	if p, ok := catalog[code]; ok {
		return p
	}
	return catalog[Unknown]
}

// All returns every classifiable personality in display order.
func All() []Personality {
	return []Personality{catalog[Ant], catalog[Fox], catalog[Squirrel], catalog[Lion]}
}
