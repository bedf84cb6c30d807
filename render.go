package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// WaveSource supplies the analysis window drawn under the scene and its RMS
// level, which sets the stroke width.
type WaveSource interface {
	Waveform(dst []float32) []float32
	Level() float32
}

// labelPos is the label anchor as a fraction of the window size.
var labelPos = [NumLabels]Point{
	LabelSynth:   {0.50, 0.03},
	LabelStrings: {0.50, 0.08},
	LabelLead1:   {0.50, 0.13},
	LabelLead2:   {0.50, 0.18},
	LabelHiHat:   {0.70, 0.67},
	LabelKick:    {0.50, 0.67},
	LabelSnare:   {0.30, 0.67},
	LabelBass:    {0.50, 0.67},
	LabelSerial:  {0.50, 0.20},
}

var (
	backgroundColor = color.White
	curveColor      = color.RGBA{0, 0, 0, 50}
	pointColor      = color.RGBA{0x20, 0x20, 0x20, 0xff}
	waveColor       = color.RGBA{0x40, 0x40, 0x40, 0xff}
	labelPlate      = color.RGBA{0x10, 0x10, 0x10, 0xc0}
)

const debugGlyphWidth = 6

// Renderer is the per-tick FrameRenderer. It draws onto an accumulating
// canvas that only ResetCanvas clears.
type Renderer struct {
	scene   *Scene
	wave    WaveSource
	noise   *Perlin
	onClick func()

	canvas *ebiten.Image
	offset float64
	resets int

	orbit    Orbit
	dragging bool
	lastX    int
	lastY    int
	width    float64
	height   float64

	points []Vec3
	samps  []float32
}

// NewRenderer draws scene. wave may be nil. onClick is called when the window
// is clicked while the serial prompt is showing.
func NewRenderer(scene *Scene, wave WaveSource, onClick func()) *Renderer {
	return &Renderer{scene: scene, wave: wave, noise: NewPerlin(1), onClick: onClick}
}

// Run opens the window and blocks until it is closed.
func (r *Renderer) Run(title string, width, height int) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	return ebiten.RunGame(r)
}

func (r *Renderer) Update() error {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		st := r.scene.Snapshot()
		if st.Labels[LabelSerial] && r.onClick != nil {
			logger.Info("render: click, requesting serial rescan")
			r.onClick()
		}
	}

	// drag to orbit
	x, y := ebiten.CursorPosition()
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if r.dragging {
			r.orbit.Drag(float64(x-r.lastX), float64(y-r.lastY), r.width, r.height)
		}
		r.dragging = true
	} else {
		r.dragging = false
	}
	r.lastX, r.lastY = x, y
	return nil
}

func (r *Renderer) Draw(screen *ebiten.Image) {
	st := r.scene.Snapshot()
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	if r.canvas == nil || r.canvas.Bounds().Dx() != w || r.canvas.Bounds().Dy() != h {
		if r.canvas != nil {
			r.canvas.Deallocate()
		}
		r.canvas = ebiten.NewImage(w, h)
		r.canvas.Fill(backgroundColor)
	}
	if st.Resets != r.resets {
		r.resets = st.Resets
		r.canvas.Fill(backgroundColor)
		r.offset = 0
	}

	fw, fh := float64(w), float64(h)
	r.drawCurve(fw, fh)
	r.drawFlower(st, fw, fh)
	r.drawWaveform(fw, fh)

	screen.DrawImage(r.canvas, nil)
	drawLabels(screen, st, fw, fh)
}

// drawCurve lays curveStrokes translucent passes of the tick's curve.
func (r *Renderer) drawCurve(w, h float64) {
	ctl := NoiseCurve(r.noise, r.offset, w/2, h/2)
	pts := BezierFlatten(ctl, bezierChunks)
	for i := 0; i < curveStrokes; i++ {
		strokePolyline(r.canvas, pts, 0.25, curveColor)
	}
	r.offset += offsetStep
}

func (r *Renderer) drawFlower(st SceneState, w, h float64) {
	r.points = FlowerPoints(r.points[:0], st.Theta, st.Phi, FlowerA, FlowerB)
	for _, v := range r.points {
		p, ok := Project(r.orbit.Apply(Transform(v, st.Zoom, st.RotationX, st.RotationY)), w, h)
		if !ok {
			continue
		}
		vector.DrawFilledRect(r.canvas, float32(p.X), float32(p.Y), 1, 1, pointColor, false)
	}
}

func (r *Renderer) drawWaveform(w, h float64) {
	if r.wave == nil {
		return
	}
	r.samps = r.wave.Waveform(r.samps)
	strokePolyline(r.canvas, WaveformPath(r.samps, w, h), WaveWidth(r.wave.Level()), waveColor)
}

func strokePolyline(dst *ebiten.Image, pts []Point, width float32, clr color.Color) {
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		vector.StrokeLine(dst, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), width, clr, true)
	}
}

func drawLabels(screen *ebiten.Image, st SceneState, w, h float64) {
	for _, l := range st.Visible() {
		text := l.String()
		x := int(labelPos[l].X*w) - len(text)*debugGlyphWidth/2
		y := int(labelPos[l].Y * h)
		// debug glyphs are white; give them a plate
		vector.DrawFilledRect(screen, float32(x-4), float32(y-2), float32(len(text)*debugGlyphWidth+8), 20, labelPlate, false)
		ebitenutil.DebugPrintAt(screen, text, x, y)
	}
}

func (r *Renderer) Layout(outsideWidth, outsideHeight int) (int, int) {
	r.width, r.height = float64(outsideWidth), float64(outsideHeight)
	return outsideWidth, outsideHeight
}
