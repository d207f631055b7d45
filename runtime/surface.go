package runtime

import (
	"go.uber.org/zap"

	playhost "github.com/wippyai/wasm-playhost"
	"github.com/wippyai/wasm-playhost/gpu"
	"github.com/wippyai/wasm-playhost/resource"
)

// reservedSurfaces keeps the low ids free, so the first surface a module
// creates is 4.
const reservedSurfaces = 3

// DeviceFactory creates the GPU device backing a new surface.
type DeviceFactory func(width, height uint32) gpu.Device

// Surface is a drawing target with its own GPU device. The display the
// platform starts with is a Surface that is not in the registry and is
// addressed as 0.
type Surface struct {
	Device gpu.Device
	Width  uint32
	Height uint32
}

func (p *Platform) surface(h uint32) *Surface {
	if h == 0 {
		return p.display
	}
	s, err := p.surfaces.Resolve(resource.Handle(h))
	if err != nil {
		panic(err)
	}
	return s
}

// Current returns the surface the GPU imports draw to.
func (p *Platform) Current() *Surface { return p.surface(p.current) }

// ScreenWidth returns the width of the current surface.
func (p *Platform) ScreenWidth() uint32 { return p.Current().Width }

// ScreenHeight returns the height of the current surface.
func (p *Platform) ScreenHeight() uint32 { return p.Current().Height }

// CreateSurface creates a surface of the given size and returns its id.
func (p *Platform) CreateSurface(width, height uint32) uint32 {
	s := &Surface{Device: p.devices(width, height), Width: width, Height: height}
	h := p.surfaces.Allocate(s)
	p.logger.Debug("surface created",
		zap.Uint32("surface", uint32(h)), zap.Uint32("width", width), zap.Uint32("height", height))
	return uint32(h)
}

// SurfaceSize writes the size of surface h to the non-zero pointers.
func (p *Platform) SurfaceSize(m playhost.Memory, h, wPtr, hPtr uint32) {
	s := p.surface(h)
	if wPtr != 0 {
		if err := m.WriteU32(wPtr, s.Width); err != nil {
			panic(err)
		}
	}
	if hPtr != 0 {
		if err := m.WriteU32(hPtr, s.Height); err != nil {
			panic(err)
		}
	}
}

// MakeSurfaceCurrent routes the GPU imports to surface h; 0 selects the
// display. Object handles are shared across surfaces.
func (p *Platform) MakeSurfaceCurrent(h uint32) {
	s := p.surface(h)
	p.current = h
	p.gpu.SetDevice(s.Device)
}

// DestroySurface releases surface h. Destroying the current surface
// makes the display current again.
func (p *Platform) DestroySurface(h uint32) {
	if _, err := p.surfaces.Release(resource.Handle(h)); err != nil {
		panic(err)
	}
	if p.current == h {
		p.current = 0
		p.gpu.SetDevice(p.display.Device)
	}
}

// Surfaces returns the number of module-created surfaces.
func (p *Platform) Surfaces() int { return p.surfaces.Len() }
