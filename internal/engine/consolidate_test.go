package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kabs/internal"
)

func TestConsolidateMergesEquivalentCodes(t *testing.T) {
	got := Consolidate([]internal.RawCandidate{
		{RawCode: "B30", Quantity: 1},
		{RawCode: `BASE CABINET 30"`, Quantity: 2},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "B30", got[0].SKU)
	assert.Equal(t, "B30", got[0].NormalizedCode)
	assert.Equal(t, 3, got[0].Quantity)
	assert.Equal(t, "B30", got[0].RawCode)
}

func TestConsolidateKeepsFirstSeenOrderAndFields(t *testing.T) {
	got := Consolidate([]internal.RawCandidate{
		{RawCode: "W3030", Description: "wall", Type: "Wall", Quantity: 1},
		{RawCode: "B30", Description: "first base", Quantity: 1},
		{RawCode: "W3030 L", Description: "other wall", Quantity: 2},
		{RawCode: "SB36", Quantity: 1},
		{RawCode: "b30", Description: "second base", Quantity: 4},
	})

	require.Len(t, got, 3)
	assert.Equal(t, []string{"W3030", "B30", "SB36"}, []string{got[0].SKU, got[1].SKU, got[2].SKU})
	assert.Equal(t, 3, got[0].Quantity)
	assert.Equal(t, "wall", got[0].Description)
	assert.Equal(t, "Wall", got[0].Type)
	assert.Equal(t, 5, got[1].Quantity)
	assert.Equal(t, "first base", got[1].Description)
}

func TestConsolidateClampsQuantity(t *testing.T) {
	got := Consolidate([]internal.RawCandidate{
		{RawCode: "B30", Quantity: 0},
		{RawCode: "B30", Quantity: -4},
	})
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Quantity)
}

func TestConsolidateUnreadableLabels(t *testing.T) {
	got := Consolidate([]internal.RawCandidate{
		{RawCode: "???", Quantity: 1},
		{RawCode: "  ??? ", Quantity: 1},
		{RawCode: "--", Quantity: 1},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "", got[0].NormalizedCode)
	assert.Equal(t, 2, got[0].Quantity)
	assert.Equal(t, "--", got[1].RawCode)
}

func TestConsolidateFallsBackToDescription(t *testing.T) {
	got := Consolidate([]internal.RawCandidate{
		{Description: "Sink Base 36", Quantity: 1},
		{RawCode: "SB36", Quantity: 1},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "SB36", got[0].NormalizedCode)
	assert.Equal(t, 2, got[0].Quantity)
}

func TestConsolidateEmpty(t *testing.T) {
	assert.Empty(t, Consolidate(nil))
}
