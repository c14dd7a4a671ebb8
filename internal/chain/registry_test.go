package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -v --run TestRegistryOrder
func TestRegistryOrder(t *testing.T) {
	r, err := NewRegistry("BANKNIFTY27JAN26", 60000, 60200, 100)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"BANKNIFTY27JAN2660000CE",
		"BANKNIFTY27JAN2660000PE",
		"BANKNIFTY27JAN2660100CE",
		"BANKNIFTY27JAN2660100PE",
		"BANKNIFTY27JAN2660200CE",
		"BANKNIFTY27JAN2660200PE",
		"BANKNIFTY27JAN26FUT",
	}, r.Symbols())

	assert.Equal(t, []string{
		"60000 ce", "60000 pe",
		"60100 ce", "60100 pe",
		"60200 ce", "60200 pe",
	}, r.Columns())

	assert.Len(t, r.Options(), 6)
	assert.Equal(t, "BANKNIFTY27JAN26FUT", r.Future())
}

func TestRegistryDeterministic(t *testing.T) {
	a, err := NewRegistry("BANKNIFTY27JAN26", 59600, 60600, 100)
	require.NoError(t, err)
	b, err := NewRegistry("BANKNIFTY27JAN26", 59600, 60600, 100)
	require.NoError(t, err)

	assert.Equal(t, a.Symbols(), b.Symbols())
	assert.Len(t, a.Symbols(), 11*2+1)
}

func TestDisplayColumn(t *testing.T) {
	r, err := NewRegistry("BANKNIFTY27JAN26", 60000, 60200, 100)
	require.NoError(t, err)

	col, ok := r.DisplayColumn("BANKNIFTY27JAN2660100PE")
	assert.True(t, ok)
	assert.Equal(t, "60100 pe", col)

	_, ok = r.DisplayColumn("BANKNIFTY27JAN26FUT")
	assert.False(t, ok)

	_, ok = r.DisplayColumn("NIFTY30JAN2624000CE")
	assert.False(t, ok)

	assert.True(t, r.IsFuture("BANKNIFTY27JAN26FUT"))
	assert.False(t, r.IsFuture("BANKNIFTY27JAN2660100PE"))
	assert.True(t, r.Contains("BANKNIFTY27JAN2660100PE"))
}

func TestRegistryRejectsBadRange(t *testing.T) {
	_, err := NewRegistry("", 60000, 60200, 100)
	assert.Error(t, err)
	_, err = NewRegistry("X", 60200, 60000, 100)
	assert.Error(t, err)
	_, err = NewRegistry("X", 60000, 60200, 0)
	assert.Error(t, err)
}
