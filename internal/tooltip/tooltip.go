// Package tooltip computes fixed-position coordinates for the event detail
// tooltip so it always stays inside the viewport. The computation is a pure
// function of the clicked anchor rectangle, the tooltip's measured size and
// the viewport; callers re-invoke it whenever any of those change.
package tooltip

// margin is the minimum gap kept between the tooltip and both the anchor
// and the viewport edges.
const margin = 8

// Rect is the anchor's bounding box in viewport coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Size is the tooltip's own rendered size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport is the visible window size.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Position is the computed top-left corner for the tooltip.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Compute places the tooltip relative to the anchor:
//
//   - Horizontally it starts at the anchor's left edge, then is clamped so
//     its right edge stays within margin of the viewport and its left edge
//     never goes below margin.
//   - Vertically it prefers sitting below the anchor; if that overflows the
//     viewport bottom it flips above the anchor, and if that still does not
//     fit it clamps to max(margin, viewportHeight - height - margin).
func Compute(anchor Rect, size Size, vp Viewport) Position {
	x := anchor.Left
	if x+size.Width > vp.Width-margin {
		x = vp.Width - margin - size.Width
	}
	if x < margin {
		x = margin
	}

	y := anchor.Bottom + margin
	if y+size.Height > vp.Height-margin {
		y = anchor.Top - size.Height - margin
	}
	if y < margin {
		y = vp.Height - size.Height - margin
		if y < margin {
			y = margin
		}
	}

	return Position{X: x, Y: y}
}
