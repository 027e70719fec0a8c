// Package viewport holds the pan/zoom view transform of a canvas. It only maps
// between screen and canvas space; stored node positions never change here.
package viewport

import (
	"fmt"
	"math"

	"flowcanvas/domain/config"
)

// ZoomStep is the factor applied by the zoom-in and zoom-out controls
const ZoomStep = 1.2

// Transform maps canvas space to screen space: screen = canvas*Zoom + (X, Y)
type Transform struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Identity is the transform of a freshly opened canvas
var Identity = Transform{Zoom: 1}

// Viewport is the view matrix of one canvas plus the host container size
type Viewport struct {
	t       Transform
	size    Size
	minZoom float64
	maxZoom float64
	padding float64
}

// New creates an identity viewport with the zoom limits and fit padding of
// rules. A nil rules uses the defaults.
func New(rules *config.DomainConfig) *Viewport {
	if rules == nil {
		rules = config.DefaultDomainConfig()
	}
	return &Viewport{
		t:       Identity,
		minZoom: rules.MinZoom,
		maxZoom: rules.MaxZoom,
		padding: rules.FitPadding,
	}
}

// Transform returns the current transform
func (v *Viewport) Transform() Transform { return v.t }

// Zoom returns the current zoom level
func (v *Viewport) Zoom() float64 { return v.t.Zoom }

// Size returns the host container size
func (v *Viewport) Size() Size { return v.size }

// SetSize records the host container size
func (v *Viewport) SetSize(s Size) error {
	if !finite(s.Width) || !finite(s.Height) || s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("invalid viewport size %vx%v", s.Width, s.Height)
	}
	v.size = s
	return nil
}

// SetTransform replaces the transform, clamping zoom to the limits
func (v *Viewport) SetTransform(t Transform) error {
	if !finite(t.X) || !finite(t.Y) || !finite(t.Zoom) || t.Zoom <= 0 {
		return fmt.Errorf("invalid transform %+v", t)
	}
	t.Zoom = v.clamp(t.Zoom)
	v.t = t
	return nil
}

// Pan moves the view by a screen-space delta
func (v *Viewport) Pan(dx, dy float64) error {
	if !finite(dx) || !finite(dy) {
		return fmt.Errorf("invalid pan delta (%v, %v)", dx, dy)
	}
	v.t.X += dx
	v.t.Y += dy
	return nil
}

// ZoomAt multiplies the zoom by factor keeping the canvas point under the
// screen anchor fixed.
func (v *Viewport) ZoomAt(factor float64, anchor Point) error {
	if !finite(factor) || factor <= 0 || !anchor.Finite() {
		return fmt.Errorf("invalid zoom factor %v at %+v", factor, anchor)
	}
	next := v.clamp(v.t.Zoom * factor)
	ratio := next / v.t.Zoom
	v.t.X = anchor.X - (anchor.X-v.t.X)*ratio
	v.t.Y = anchor.Y - (anchor.Y-v.t.Y)*ratio
	v.t.Zoom = next
	return nil
}

// ZoomIn zooms one step around the center of the host container
func (v *Viewport) ZoomIn() {
	_ = v.ZoomAt(ZoomStep, v.center())
}

// ZoomOut zooms out one step around the center of the host container
func (v *Viewport) ZoomOut() {
	_ = v.ZoomAt(1/ZoomStep, v.center())
}

// Reset restores the identity transform
func (v *Viewport) Reset() {
	v.t = Identity
}

// Fit zooms and pans so bounds fill the host size, keeping the padding
// fraction free on every side. Empty bounds reset the view.
func (v *Viewport) Fit(bounds Rect, size Size) error {
	if err := v.SetSize(size); err != nil {
		return err
	}
	if size.Empty() || bounds.Empty() {
		v.Reset()
		return nil
	}

	usableW := size.Width * (1 - 2*v.padding)
	usableH := size.Height * (1 - 2*v.padding)
	zoom := math.Min(usableW/bounds.Width, usableH/bounds.Height)
	v.t.Zoom = v.clamp(zoom)
	v.centerOn(bounds.Center())
	return nil
}

// ScreenToCanvas maps a container-relative screen point into canvas space
func (v *Viewport) ScreenToCanvas(p Point) Point {
	return Point{X: (p.X - v.t.X) / v.t.Zoom, Y: (p.Y - v.t.Y) / v.t.Zoom}
}

// CanvasToScreen maps a canvas point into container-relative screen space
func (v *Viewport) CanvasToScreen(p Point) Point {
	return Point{X: p.X*v.t.Zoom + v.t.X, Y: p.Y*v.t.Zoom + v.t.Y}
}

// CanvasRectToScreen maps a canvas rectangle into screen space
func (v *Viewport) CanvasRectToScreen(r Rect) Rect {
	tl := v.CanvasToScreen(Point{X: r.X, Y: r.Y})
	return Rect{X: tl.X, Y: tl.Y, Width: r.Width * v.t.Zoom, Height: r.Height * v.t.Zoom}
}

// VisibleRect is the part of canvas space shown in the host container
func (v *Viewport) VisibleRect() Rect {
	tl := v.ScreenToCanvas(Point{})
	return Rect{X: tl.X, Y: tl.Y, Width: v.size.Width / v.t.Zoom, Height: v.size.Height / v.t.Zoom}
}

func (v *Viewport) centerOn(p Point) {
	v.t.X = v.size.Width/2 - p.X*v.t.Zoom
	v.t.Y = v.size.Height/2 - p.Y*v.t.Zoom
}

func (v *Viewport) center() Point {
	return Point{X: v.size.Width / 2, Y: v.size.Height / 2}
}

func (v *Viewport) clamp(z float64) float64 {
	return math.Max(v.minZoom, math.Min(v.maxZoom, z))
}
