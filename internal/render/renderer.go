// Package render rasterizes engine snapshots into debug frames. It draws a
// top-down orthographic view of the world: landed pools as filled ellipses,
// in-flight droplets as dots with velocity streaks. The frames feed preview
// tooling; the real game renders the pools itself from snapshots.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"splat/internal/splat"

	"github.com/fogleman/gg"
)

// Config controls frame dimensions and the world window mapped onto them.
type Config struct {
	Width  int
	Height int

	// World-space view window on the XZ plane.
	WorldMinX float64
	WorldMaxX float64
	WorldMinZ float64
	WorldMaxZ float64
}

// DefaultConfig views a 20x11.25 world window at 720p.
func DefaultConfig() Config {
	return Config{
		Width:     1280,
		Height:    720,
		WorldMinX: -10,
		WorldMaxX: 10,
		WorldMinZ: -5.625,
		WorldMaxZ: 5.625,
	}
}

// Renderer draws snapshots onto a reused gg context. Not safe for
// concurrent use; give each consumer its own renderer.
type Renderer struct {
	config Config
	dc     *gg.Context
}

// NewRenderer allocates the backing context once; Render reuses it.
func NewRenderer(config Config) *Renderer {
	if config.Width <= 0 || config.Height <= 0 {
		config = DefaultConfig()
	}
	return &Renderer{
		config: config,
		dc:     gg.NewContext(config.Width, config.Height),
	}
}

// Render draws the snapshot and returns the frame. The returned image
// aliases the renderer's buffer and is only valid until the next Render.
func (r *Renderer) Render(snap *splat.EngineSnapshot) image.Image {
	dc := r.dc

	r.drawBackground(dc)

	for i := range snap.Objects {
		r.drawPool(dc, &snap.Objects[i])
	}
	for i := range snap.Flights {
		r.drawFlight(dc, &snap.Flights[i])
	}

	r.drawHUD(dc, snap)

	return dc.Image()
}

func (r *Renderer) drawBackground(dc *gg.Context) {
	dc.SetColor(color.RGBA{24, 24, 28, 255})
	dc.DrawRectangle(0, 0, float64(r.config.Width), float64(r.config.Height))
	dc.Fill()

	// 1-unit world grid
	dc.SetColor(color.RGBA{40, 40, 48, 255})
	dc.SetLineWidth(1)
	for wx := math.Ceil(r.config.WorldMinX); wx <= r.config.WorldMaxX; wx++ {
		x, _ := r.project(wx, r.config.WorldMinZ)
		dc.DrawLine(x, 0, x, float64(r.config.Height))
		dc.Stroke()
	}
	for wz := math.Ceil(r.config.WorldMinZ); wz <= r.config.WorldMaxZ; wz++ {
		_, y := r.project(r.config.WorldMinX, wz)
		dc.DrawLine(0, y, float64(r.config.Width), y)
		dc.Stroke()
	}
}

func (r *Renderer) drawPool(dc *gg.Context, obj *splat.ObjectSnapshot) {
	x, y := r.project(obj.Position[0], obj.Position[2])
	rx := obj.Size[0] / 2 * r.scaleX()
	rz := obj.Size[2] / 2 * r.scaleZ()
	if rx <= 0 || rz <= 0 {
		return
	}

	alpha := 1 - obj.Transparency
	if alpha <= 0 {
		return
	}

	cr, cg, cb := parseHexColor(obj.Color)
	dc.SetRGBA255(cr, cg, cb, int(alpha*255))

	dc.Push()
	dc.RotateAbout(obj.Yaw, x, y)
	dc.DrawEllipse(x, y, rx, rz)
	dc.Fill()
	dc.Pop()
}

func (r *Renderer) drawFlight(dc *gg.Context, f *splat.FlightSnapshot) {
	x, y := r.project(f.Position[0], f.Position[2])
	cr, cg, cb := parseHexColor(f.Color)

	// Velocity streak behind the droplet
	speed := math.Hypot(f.Velocity[0], f.Velocity[2])
	if speed > 0.01 {
		const streak = 0.04 // seconds of trail
		tx, ty := r.project(f.Position[0]-f.Velocity[0]*streak, f.Position[2]-f.Velocity[2]*streak)
		dc.SetRGBA255(cr, cg, cb, 120)
		dc.SetLineWidth(2)
		dc.DrawLine(tx, ty, x, y)
		dc.Stroke()
	}

	dc.SetRGBA255(cr, cg, cb, 255)
	dc.DrawCircle(x, y, 3)
	dc.Fill()
}

func (r *Renderer) drawHUD(dc *gg.Context, snap *splat.EngineSnapshot) {
	dc.SetColor(color.RGBA{200, 200, 210, 255})
	text := fmt.Sprintf("tick %d  pools %d  flights %d  pool %d/%d",
		snap.Tick, snap.Landed, len(snap.Flights), snap.InUse, snap.Limit)
	dc.DrawString(text, 10, 20)
}

// project maps world XZ coordinates onto the frame.
func (r *Renderer) project(wx, wz float64) (float64, float64) {
	x := (wx - r.config.WorldMinX) * r.scaleX()
	y := (wz - r.config.WorldMinZ) * r.scaleZ()
	return x, y
}

func (r *Renderer) scaleX() float64 {
	return float64(r.config.Width) / (r.config.WorldMaxX - r.config.WorldMinX)
}

func (r *Renderer) scaleZ() float64 {
	return float64(r.config.Height) / (r.config.WorldMaxZ - r.config.WorldMinZ)
}

// parseHexColor decodes "#rrggbb" into components. Malformed colors fall
// back to a visible magenta so bad data shows up in frames.
func parseHexColor(s string) (int, int, int) {
	if len(s) == 7 && s[0] == '#' {
		var cr, cg, cb int
		if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &cr, &cg, &cb); err == nil {
			return cr, cg, cb
		}
	}
	return 255, 0, 255
}
