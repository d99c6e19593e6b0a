package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kabs/internal"
)

func TestParseDimensions(t *testing.T) {
	cases := []struct {
		code string
		typ  internal.CabinetType
		w    float64
		h    float64
		d    float64
	}{
		{"W2430", internal.CabinetWall, 24, 30, 12},
		{"W3042", internal.CabinetWall, 30, 42, 12},
		{"W30", internal.CabinetWall, 30, 30, 12},
		{"WDC2430", internal.CabinetWall, 24, 30, 12},
		{"B30", internal.CabinetBase, 30, 34.5, 24},
		{"SB36", internal.CabinetBase, 36, 34.5, 24},
		{"BBC42", internal.CabinetBase, 42, 34.5, 24},
		{"LS36", internal.CabinetBase, 36, 34.5, 24},
		{"U2484", internal.CabinetTall, 24, 84, 24},
		{"U24", internal.CabinetTall, 24, 84, 24},
		{"T18108", internal.CabinetTall, 18, 108, 24},
		{"RR96", internal.CabinetTall, 3, 96, 24},
		{"BF3", internal.CabinetAccessory, 3, 0, 0},
		{"WF6", internal.CabinetAccessory, 6, 0, 0},
		{"TK96", internal.CabinetAccessory, 96, 0, 0},
		{"DWR", internal.CabinetAccessory, 3, 0, 0},
		{"REP24", internal.CabinetAccessory, 24, 0, 0},
		{"V24", internal.CabinetVanity, 24, 34.5, 21},
		{"VSB30", internal.CabinetVanity, 30, 34.5, 21},
		{"HINGESOFTCLOSE", internal.CabinetHardware, 0, 0, 0},
		{"KNOB", internal.CabinetHardware, 0, 0, 0},
		{"XYZ12", internal.CabinetAccessory, 12, 0, 0},
		{"GEN", internal.CabinetUnknown, 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			got := ParseDimensions(tc.code)
			require.NotNil(t, got)
			assert.Equal(t, tc.typ, got.Type)
			assert.Equal(t, tc.w, got.Width)
			assert.Equal(t, tc.h, got.Height)
			assert.Equal(t, tc.d, got.Depth)
			assert.Equal(t, tc.code, got.Code)
		})
	}
}

func TestParseDimensionsEmpty(t *testing.T) {
	assert.Nil(t, ParseDimensions(""))
}

func TestDimensionLabel(t *testing.T) {
	d := ParseDimensions("W2430")
	assert.Equal(t, `24"W x 30"H x 12"D`, DimensionLabel(*d))

	d = ParseDimensions("B30")
	assert.Equal(t, `30"W x 34.5"H x 24"D`, DimensionLabel(*d))

	assert.Equal(t, "", DimensionLabel(internal.CabinetDimensions{Type: internal.CabinetUnknown}))
}
