package personality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/spending-patterns/internal/domain"
)

func row(d, hour int, amount int64, merchant string) domain.Transaction {
	return domain.Transaction{
		Timestamp:   time.Date(2024, time.March, d, hour, 0, 0, 0, time.UTC),
		Amount:      amount,
		Description: merchant,
		Category:    "Misc",
	}
}

func TestDetermineType(t *testing.T) {
	tests := []struct {
		scores Scores
		want   Type
	}{
		{Scores{Planning: 0.6, Saving: 0.3}, Fox},
		{Scores{Planning: 0.4, Saving: 0.6}, Squirrel},
		{Scores{Planning: 0.5, Saving: 0.5}, Ant},
		{Scores{Planning: 0.49, Saving: 0.49}, Lion},
		{Scores{Planning: 1, Saving: 0}, Fox},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetermineType(tt.scores), "%+v", tt.scores)
	}
}

func TestScore_Empty(t *testing.T) {
	_, err := Score(nil)
	assert.Error(t, err)
}

func TestScore_SingleRow(t *testing.T) {
	s, err := Score(domain.Table{row(1, 9, 5000, "Cafe")})
	require.NoError(t, err)
	// one hour -> regularity 1.0, one merchant with one visit -> ratio 0
	assert.InDelta(t, 0.5, s.Planning, 1e-9)
	// amount 0.95, zero span -> frequency 0.5
	assert.InDelta(t, 0.77, s.Saving, 1e-9)
	assert.Equal(t, Ant, DetermineType(s))
}

func TestScore_Fox(t *testing.T) {
	s, err := Score(domain.Table{
		row(3, 19, 200000, "Hotel"),
		row(2, 19, 200000, "Hotel"),
		row(1, 19, 200000, "Hotel"),
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s.Planning, 1e-9)
	// 3 rows over 2 days is 45 a month
	assert.InDelta(t, 0.22, s.Saving, 1e-9)
	assert.Equal(t, Fox, DetermineType(s))
}

func TestScore_Squirrel(t *testing.T) {
	s, err := Score(domain.Table{
		row(31, 6, 1000, "D"),
		row(20, 23, 1000, "C"),
		row(10, 12, 1000, "B"),
		row(1, 0, 1000, "A"),
	})
	require.NoError(t, err)
	assert.Less(t, s.Planning, 0.5)
	assert.Greater(t, s.Saving, 0.5)
	assert.Equal(t, Squirrel, DetermineType(s))
}

func TestScore_Lion(t *testing.T) {
	s, err := Score(domain.Table{
		row(2, 23, 300000, "B"),
		row(1, 1, 300000, "A"),
	})
	require.NoError(t, err)
	assert.Equal(t, Lion, DetermineType(s))
}

func TestMerchantRepeatRatio(t *testing.T) {
	table := domain.Table{
		row(1, 9, 1, "A"), row(2, 9, 1, "A"), row(3, 9, 1, "A"),
		row(4, 9, 1, "B"),
	}
	assert.InDelta(t, 0.5, merchantRepeatRatio(table), 1e-9)

	noMerchants := domain.Table{row(1, 9, 1, ""), row(2, 9, 1, "")}
	assert.InDelta(t, 0.5, merchantRepeatRatio(noMerchants), 1e-9)
}

func TestScoresStayInRange(t *testing.T) {
	table := domain.Table{
		row(1, 0, 10000000, "A"),
		row(1, 12, 10000000, "B"),
		row(1, 23, 10000000, "C"),
	}
	s, err := Score(table)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, s.Planning, 0.0)
	assert.LessOrEqual(t, s.Planning, 1.0)
	assert.GreaterOrEqual(t, s.Saving, 0.0)
	assert.LessOrEqual(t, s.Saving, 1.0)
}
