package linecut

import (
	"math"
	"sort"
)

// affine is a 2x3 row-major transform:
// x' = A*x + B*y + C, y' = D*x + E*y + F.
type affine struct {
	A, B, C float64
	D, E, F float64
}

func (m affine) apply(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// rotationAbout builds the transform rotating by deg degrees
// counterclockwise (in the y-down image frame) about (cx, cy).
func rotationAbout(cx, cy, deg float64) affine {
	a := deg * math.Pi / 180
	alpha, beta := math.Cos(a), math.Sin(a)
	return affine{
		A: alpha, B: beta, C: (1-alpha)*cx - beta*cy,
		D: -beta, E: alpha, F: beta*cx + (1-alpha)*cy,
	}
}

// bounds returns the axis-aligned bounding box of the points.
func bounds(pts []Point) (minX, minY, maxX, maxY float64) {
	minX, minY = pts[0].X, pts[0].Y
	maxX, maxY = pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return
}

// convexHull returns the convex hull of the points in counterclockwise
// order (Andrew's monotone chain). Collinear input collapses to fewer than
// three points.
func convexHull(pts []Point) []Point {
	sorted := make([]Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})
	// Dedupe; duplicated vertices are common in hand-drawn polygons.
	uniq := sorted[:0]
	for i, p := range sorted {
		if i == 0 || p != sorted[i-1] {
			uniq = append(uniq, p)
		}
	}
	n := len(uniq)
	if n < 3 {
		return uniq
	}

	cross := func(o, a, b Point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	hull := make([]Point, 0, 2*n)
	for _, p := range uniq {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := n - 2; i >= 0; i-- {
		p := uniq[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// minRect is a minimum-area enclosing rectangle. W is the extent along the
// direction given by Angle, H the perpendicular extent. Angle is normalized
// to [-90, 0) degrees.
type minRect struct {
	W, H    float64
	Angle   float64
	Corners [4]Point
}

// minAreaRect computes the smallest-area rectangle of any orientation
// enclosing the points, by rotating calipers over the convex hull: the
// minimal rectangle shares an edge direction with some hull edge.
func minAreaRect(pts []Point) minRect {
	hull := convexHull(pts)
	if len(hull) < 3 {
		// Degenerate: fall back to the axis-aligned box.
		minX, minY, maxX, maxY := bounds(pts)
		return minRect{
			W: maxX - minX, H: maxY - minY, Angle: -90,
			Corners: [4]Point{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}},
		}
	}

	best := math.Inf(1)
	var bestTheta, bMinX, bMinY, bMaxX, bMaxY float64
	n := len(hull)
	for i := 0; i < n; i++ {
		e := Point{X: hull[(i+1)%n].X - hull[i].X, Y: hull[(i+1)%n].Y - hull[i].Y}
		theta := math.Atan2(e.Y, e.X)
		cosT, sinT := math.Cos(-theta), math.Sin(-theta)

		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, p := range hull {
			x := cosT*p.X - sinT*p.Y
			y := sinT*p.X + cosT*p.Y
			minX = math.Min(minX, x)
			minY = math.Min(minY, y)
			maxX = math.Max(maxX, x)
			maxY = math.Max(maxY, y)
		}
		if area := (maxX - minX) * (maxY - minY); area < best {
			best = area
			bestTheta = theta
			bMinX, bMinY, bMaxX, bMaxY = minX, minY, maxX, maxY
		}
	}

	// Map the rectangle corners back into the original frame.
	cosT, sinT := math.Cos(bestTheta), math.Sin(bestTheta)
	unrot := func(x, y float64) Point {
		return Point{X: cosT*x - sinT*y, Y: sinT*x + cosT*y}
	}
	corners := [4]Point{
		unrot(bMinX, bMinY), unrot(bMaxX, bMinY),
		unrot(bMaxX, bMaxY), unrot(bMinX, bMaxY),
	}

	// Normalize the edge angle into [-90, 0); every quarter turn swaps the
	// roles of width and height.
	w, h := bMaxX-bMinX, bMaxY-bMinY
	deg := bestTheta * 180 / math.Pi
	m := math.Mod(deg, 90)
	if m < 0 {
		m += 90
	}
	norm := m - 90
	steps := int(math.Round((deg - norm) / 90))
	if steps%2 != 0 {
		w, h = h, w
	}
	return minRect{W: w, H: h, Angle: norm, Corners: corners}
}

// autoAngle derives the clockwise skew of a text line from its minimum-area
// rectangle. The rectangle's angle is ambiguous by a quarter turn; assuming
// lines are longer than tall, the long side gives the text direction.
func autoAngle(pts []Point) float64 {
	r := minAreaRect(pts)
	if r.W >= r.H {
		return r.Angle
	}
	return r.Angle + 90
}
