package main

import "math"

// Angles in this file are degrees unless a name says otherwise.

const (
	curveSpread  = 200
	offsetStep   = 0.0021
	cameraZ      = 1500
	fieldOfView  = math.Pi / 3
	waveAmp      = 150
	bezierChunks = 24
	curveStrokes = 10

	orbitSensitivity = 4
)

type Vec3 struct{ X, Y, Z float64 }

type Point struct{ X, Y float64 }

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func sinDeg(deg float64) float64 { return math.Sin(radians(deg)) }
func cosDeg(deg float64) float64 { return math.Cos(radians(deg)) }

// vShape is the petal height profile A·e^(−b·|r|^1.5)·|r|^c.
func vShape(a, r, b, c float64) float64 {
	ar := math.Abs(r)
	return a * math.Exp(-b*math.Pow(ar, 1.5)) * math.Pow(ar, c)
}

func perturbation(a, r, angle float64) float64 {
	return 1 + a*r*r*sinDeg(angle)
}

// FlowerPoints appends the surface vertices for theta in [0,thetaMax) and
// phi in [0,360) step phiStep.
func FlowerPoints(dst []Vec3, thetaMax, phiStep, a, b float64) []Vec3 {
	if phiStep <= 0 {
		return dst
	}
	for theta := 0.0; theta < thetaMax; theta++ {
		for phi := 0.0; phi < 360; phi += phiStep {
			r := (a*math.Abs(sinDeg(phi*3)) + 225) * theta / 60
			dst = append(dst, Vec3{
				X: r * cosDeg(phi),
				Y: r * sinDeg(phi),
				Z: vShape(350, r/100, b, 0.15) - 200 + perturbation(1.5, r/100, phi),
			})
		}
	}
	return dst
}

// Transform scales by zoom, then rotates about Y and then X (radians). This
// is the vertex order of a rotateX followed by rotateY on a matrix stack.
func Transform(v Vec3, zoom, rotX, rotY float64) Vec3 {
	v = Vec3{v.X * zoom, v.Y * zoom, v.Z * zoom}
	return rotateX(rotateY(v, rotY), rotX)
}

func rotateX(v Vec3, a float64) Vec3 {
	c, s := math.Cos(a), math.Sin(a)
	return Vec3{v.X, v.Y*c - v.Z*s, v.Y*s + v.Z*c}
}

func rotateY(v Vec3, a float64) Vec3 {
	c, s := math.Cos(a), math.Sin(a)
	return Vec3{v.X*c + v.Z*s, v.Y, -v.X*s + v.Z*c}
}

// Orbit is the mouse-drag rotation layered over the controller's rotation.
type Orbit struct {
	Yaw, Pitch float64
}

// Drag turns the orbit by a pointer move of (dx, dy) pixels in a w by h
// view. A drag across the short side turns it orbitSensitivity radians.
func (o *Orbit) Drag(dx, dy, w, h float64) {
	side := math.Min(w, h)
	if side <= 0 {
		return
	}
	o.Yaw += orbitSensitivity * dx / side
	o.Pitch = math.Max(-math.Pi/2, math.Min(math.Pi/2, o.Pitch+orbitSensitivity*dy/side))
}

// Apply rotates an already transformed point by the orbit.
func (o Orbit) Apply(v Vec3) Vec3 {
	return rotateX(rotateY(v, o.Yaw), o.Pitch)
}

// Project maps a world point to screen pixels for a camera on the +Z axis
// looking at the origin. ok is false for points behind the camera.
func Project(v Vec3, width, height float64) (p Point, ok bool) {
	depth := cameraZ - v.Z
	if depth <= 0 {
		return Point{}, false
	}
	focal := (height / 2) / math.Tan(fieldOfView/2)
	return Point{
		X: width/2 + v.X*focal/depth,
		Y: height/2 + v.Y*focal/depth,
	}, true
}

// Bezier evaluates a cubic curve at t.
func Bezier(p0, p1, p2, p3 Point, t float64) Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// BezierFlatten returns the curve as a polyline of n+1 points.
func BezierFlatten(ctl [4]Point, n int) []Point {
	out := make([]Point, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, Bezier(ctl[0], ctl[1], ctl[2], ctl[3], float64(i)/float64(n)))
	}
	return out
}

// curveNoise holds the per-coordinate frequency multipliers and phases of
// the noise curves.
var curveNoise = [8][2]float64{
	{1.05, 0}, {2.1, 0.1}, {3.25, 0.2}, {1.35, 0.3},
	{3.45, 0.4}, {4.55, 0.5}, {5.65, 0.6}, {8.75, 0.7},
}

// NoiseCurve returns the control points of the curve drawn at offset,
// centered on (cx, cy).
func NoiseCurve(p *Perlin, offset, cx, cy float64) [4]Point {
	var ctl [4]Point
	for k := range ctl {
		fx, fy := curveNoise[2*k], curveNoise[2*k+1]
		ctl[k] = Point{
			X: scale(p.Noise(offset*fx[0]+fx[1]), 0, 1, cx-curveSpread, cx+curveSpread),
			Y: scale(p.Noise(offset*fy[0]+fy[1]), 0, 1, cy-curveSpread, cy+curveSpread),
		}
	}
	return ctl
}

// WaveWidth is the waveform stroke width for an analysis RMS level.
func WaveWidth(level float32) float32 {
	if level < 0 || math.IsNaN(float64(level)) {
		level = 0
	}
	return 1 + 3*min(level, 1)
}

// WaveformPath maps analysis samples across the width in a band of
// waveAmp pixels above the bottom edge.
func WaveformPath(samples []float32, width, height float64) []Point {
	out := make([]Point, 0, len(samples))
	n := float64(len(samples))
	for i, v := range samples {
		out = append(out, Point{
			X: scale(float64(i), 0, n, 0, width),
			Y: scale(float64(v), -1, 1, height-waveAmp, height),
		})
	}
	return out
}
