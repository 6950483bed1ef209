// Package geometry holds the planar helpers used by the ROI mapper.
package geometry

// Point a 2D pixel coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// horizontalEdgeEpsilon replaces a zero denominator on horizontal edges
const horizontalEdgeEpsilon = 1e-12

// PointInPolygon ray casting test.
// Points on the left edge count as inside; polygons with fewer than 3
// vertices contain nothing.
func PointInPolygon(p Point, polygon []Point) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := polygon[i].X, polygon[i].Y
		xj, yj := polygon[j].X, polygon[j].Y

		if (yi > p.Y) != (yj > p.Y) {
			dy := yj - yi
			if dy == 0 {
				dy = horizontalEdgeEpsilon
			}
			if p.X < (xj-xi)*(p.Y-yi)/dy+xi {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
