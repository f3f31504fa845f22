package tooltip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var vp = Viewport{Width: 1920, Height: 1080}

func TestComputePlacesBelowAnchorWhenItFits(t *testing.T) {
	anchor := Rect{Left: 100, Top: 80, Right: 200, Bottom: 100}
	size := Size{Width: 320, Height: 260}

	pos := Compute(anchor, size, vp)

	assert.Equal(t, 100.0, pos.X)
	assert.Equal(t, 108.0, pos.Y)
}

func TestComputeFlipsAboveOnBottomOverflow(t *testing.T) {
	// Anchor bottom at 900: 900+8+260 overflows 1080-8, so the tooltip
	// flips above the anchor.
	anchor := Rect{Left: 100, Top: 880, Right: 200, Bottom: 900}
	size := Size{Width: 320, Height: 260}

	pos := Compute(anchor, size, vp)

	assert.Equal(t, 880.0-260.0-8.0, pos.Y)
}

func TestComputeClampsRightEdge(t *testing.T) {
	anchor := Rect{Left: 1800, Top: 100, Right: 1900, Bottom: 120}
	size := Size{Width: 320, Height: 260}

	pos := Compute(anchor, size, vp)

	assert.Equal(t, 1920.0-8.0-320.0, pos.X)
}

func TestComputeClampsLeftEdge(t *testing.T) {
	anchor := Rect{Left: -50, Top: 100, Right: 10, Bottom: 120}
	size := Size{Width: 320, Height: 260}

	pos := Compute(anchor, size, vp)

	assert.Equal(t, 8.0, pos.X)
}

func TestComputeClampsWhenNeitherSideFits(t *testing.T) {
	small := Viewport{Width: 400, Height: 280}
	anchor := Rect{Left: 20, Top: 20, Right: 80, Bottom: 40}
	size := Size{Width: 200, Height: 260}

	pos := Compute(anchor, size, small)

	// Below overflows, above goes negative; clamp to
	// max(8, 280 - 260 - 8) = 12.
	assert.Equal(t, 12.0, pos.Y)
}

func TestComputeClampMinimumMargin(t *testing.T) {
	tiny := Viewport{Width: 400, Height: 200}
	anchor := Rect{Left: 20, Top: 20, Right: 80, Bottom: 40}
	size := Size{Width: 200, Height: 260}

	pos := Compute(anchor, size, tiny)

	// Even the clamp target is negative; floor at the margin.
	assert.Equal(t, 8.0, pos.Y)
}
