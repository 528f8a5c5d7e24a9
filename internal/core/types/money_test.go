package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostOf(t *testing.T) {
	tests := []struct {
		name     string
		unitCost MinorUnits
		qty      Quantity
		want     MinorUnits
	}{
		{"whole units", 1250, NewQuantity(4), 5000},
		{"fractional quantity", 1000, Quantity(25_000), 2500},
		{"rounds half away from zero", 333, Quantity(15_000), 500},
		{"negative half rounds away from zero", -333, Quantity(15_000), -500},
		{"zero", 999, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CostOf(tt.unitCost, tt.qty))
		})
	}
}

func TestMovingAverageCost(t *testing.T) {
	// 10 units at 100 plus 10 units at 200 averages to 150.
	assert.Equal(t, MinorUnits(150), MovingAverageCost(NewQuantity(10), 100, NewQuantity(10), 200))
	// Empty stock takes the receipt cost.
	assert.Equal(t, MinorUnits(200), MovingAverageCost(0, 0, NewQuantity(3), 200))
}

func TestQuantityJSON(t *testing.T) {
	var q Quantity
	require.NoError(t, json.Unmarshal([]byte(`"12.34567"`), &q))
	assert.Equal(t, Quantity(123456), q)

	require.NoError(t, json.Unmarshal([]byte(`-3`), &q))
	assert.Equal(t, NewQuantity(-3), q)

	out, err := json.Marshal(Quantity(25_000))
	require.NoError(t, err)
	assert.Equal(t, "2.5000", string(out))

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &q))
}
