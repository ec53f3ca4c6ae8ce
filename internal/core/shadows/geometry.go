package shadows

import "math"

// PointInPolygon tests if a point is inside a polygon using ray casting algorithm
func PointInPolygon(point Point, polygon []Point) bool {
	inside := false
	j := len(polygon) - 1

	for i := 0; i < len(polygon); i++ {
		xi, yi := polygon[i].X, polygon[i].Y
		xj, yj := polygon[j].X, polygon[j].Y

		if ((yi > point.Y) != (yj > point.Y)) &&
			(point.X < (xj-xi)*(point.Y-yi)/(yj-yi)+xi) {
			inside = !inside
		}
		j = i
	}

	return inside
}

// Distance calculates the Euclidean distance between two points
func Distance(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// PolygonArea returns the unsigned area of a closed polygon (shoelace formula)
func PolygonArea(polygon []Point) float64 {
	if len(polygon) < 3 {
		return 0
	}
	sum := 0.0
	j := len(polygon) - 1
	for i := range polygon {
		sum += polygon[j].Cross(polygon[i])
		j = i
	}
	return math.Abs(sum) / 2
}

// wrapAngle folds an angle into (-π, π]
func wrapAngle(angle float64) float64 {
	if angle > math.Pi {
		return angle - 2*math.Pi
	}
	if angle <= -math.Pi {
		return angle + 2*math.Pi
	}
	return angle
}
