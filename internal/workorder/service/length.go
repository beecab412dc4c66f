package service

import (
	"math"
	"strings"
)

// Densities in g/cm3 for the two alloy families the shop works with.
// Brass alloys carry "OT" in their name (OT63, OT67); everything else
// is treated as copper.
const (
	densityBrass  = 8.41
	densityCopper = 8.96
)

// computeWoundLength estimates the wound strip length in meters for a
// slit coil:
//
//	length = round((weight / pieces / density) * 1000 / (thickness * measure) * passes)
//
// The result is zero when any factor is missing, because the estimate
// is only meaningful for a coil that was actually slit.
func computeWoundLength(weight float64, pieces, passes int, alloy string, thickness, measure float64) int {
	if weight == 0 || thickness == 0 || measure == 0 || pieces == 0 {
		return 0
	}

	density := densityCopper
	if strings.Contains(strings.ToUpper(alloy), "OT") {
		density = densityBrass
	}

	length := (weight / float64(pieces) / density) * 1000 / (thickness * measure) * float64(passes)
	return int(math.Round(length))
}
