package gpu

import (
	"math"
	"strings"

	"go.uber.org/zap"

	playhost "github.com/wippyai/wasm-playhost"
	"github.com/wippyai/wasm-playhost/errors"
	"github.com/wippyai/wasm-playhost/memory"
	"github.com/wippyai/wasm-playhost/resource"
)

// maxUniformName bounds the scan for NUL-terminated uniform names.
const maxUniformName = 1024

type uniform struct {
	program resource.Handle
	loc     Location
}

// Host forwards webgl2 imports to a Device. Each object category has its
// own handle registry; GL object handles are reused LIFO, uniform
// location handles are never reused.
//
// Methods taking a Memory decode their arguments from module memory. An
// invalid handle or out-of-range pointer panics with a structured error,
// which aborts the calling export.
type Host struct {
	device       Device
	logger       *zap.Logger
	buffers      *resource.Registry[Object]
	textures     *resource.Registry[Object]
	shaders      *resource.Registry[Object]
	programs     *resource.Registry[Object]
	vertexArrays *resource.Registry[Object]
	framebuffers *resource.Registry[Object]
	uniforms     *resource.Registry[uniform]
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithHostLogger overrides the package logger for one host.
func WithHostLogger(l *zap.Logger) HostOption {
	return func(h *Host) { h.logger = l }
}

// NewHost creates a host that draws on device.
func NewHost(device Device, opts ...HostOption) *Host {
	h := &Host{
		device:       device,
		logger:       Logger(),
		buffers:      resource.New[Object](resource.WithName("buffer")),
		textures:     resource.New[Object](resource.WithName("texture")),
		shaders:      resource.New[Object](resource.WithName("shader")),
		programs:     resource.New[Object](resource.WithName("program")),
		vertexArrays: resource.New[Object](resource.WithName("vertex_array")),
		framebuffers: resource.New[Object](resource.WithName("framebuffer")),
		uniforms: resource.New[uniform](
			resource.WithName("uniform_location"),
			resource.WithPolicy(resource.Retire),
		),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Device returns the current device.
func (h *Host) Device() Device { return h.device }

// SetDevice switches the device subsequent calls go to. Handles are shared
// across devices, as with GL contexts in one share group.
func (h *Host) SetDevice(d Device) { h.device = d }

// Live returns the number of live handles per category.
func (h *Host) Live() map[string]int {
	return map[string]int{
		h.buffers.Name():      h.buffers.Len(),
		h.textures.Name():     h.textures.Len(),
		h.shaders.Name():      h.shaders.Len(),
		h.programs.Name():     h.programs.Len(),
		h.vertexArrays.Name(): h.vertexArrays.Len(),
		h.framebuffers.Name(): h.framebuffers.Len(),
		h.uniforms.Name():     h.uniforms.Len(),
	}
}

// Close deletes every remaining object on the current device.
func (h *Host) Close() error {
	release := func(r *resource.Registry[Object], del func(Object)) {
		r.Each(func(_ resource.Handle, o Object) bool {
			del(o)
			return true
		})
		_ = r.Close()
	}
	_ = h.uniforms.Close()
	release(h.programs, h.device.DeleteProgram)
	release(h.shaders, h.device.DeleteShader)
	release(h.textures, h.device.DeleteTexture)
	release(h.buffers, h.device.DeleteBuffer)
	release(h.vertexArrays, h.device.DeleteVertexArray)
	release(h.framebuffers, h.device.DeleteFramebuffer)
	return nil
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func resolve(r *resource.Registry[Object], id uint32) Object {
	return must(r.Resolve(resource.Handle(id)))
}

func lookup(r *resource.Registry[Object], id uint32) Object {
	return must(r.Lookup(resource.Handle(id)))
}

func (h *Host) location(id uint32) Location {
	if id == 0 {
		return -1
	}
	return must(h.uniforms.Resolve(resource.Handle(id))).loc
}

// gen checks the output range before creating anything, so a bad pointer
// leaves no objects behind.
func gen(m playhost.Memory, r *resource.Registry[Object], n, ptr uint32, create func() Object) {
	must(memory.Span(m, ptr, n, 4))
	handles := r.AllocateMany(int(n), create)
	ids := make([]uint32, len(handles))
	for i, hd := range handles {
		ids[i] = uint32(hd)
	}
	check(memory.WriteU32s(m, ptr, ids))
}

func remove(m playhost.Memory, r *resource.Registry[Object], n, ptr uint32, del func(Object)) {
	ids := must(memory.ReadU32s(m, ptr, n))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		del(must(r.Release(resource.Handle(id))))
	}
}

func (h *Host) ActiveTexture(unit uint32) { h.device.ActiveTexture(unit) }

func (h *Host) AttachShader(program, shader uint32) {
	h.device.AttachShader(resolve(h.programs, program), resolve(h.shaders, shader))
}

func (h *Host) DetachShader(program, shader uint32) {
	h.device.DetachShader(resolve(h.programs, program), resolve(h.shaders, shader))
}

func (h *Host) BindBuffer(target, buffer uint32) {
	h.device.BindBuffer(target, lookup(h.buffers, buffer))
}

func (h *Host) BindVertexArray(va uint32) {
	h.device.BindVertexArray(lookup(h.vertexArrays, va))
}

func (h *Host) BindFramebuffer(target, fb uint32) {
	h.device.BindFramebuffer(target, lookup(h.framebuffers, fb))
}

func (h *Host) BindTexture(target, texture uint32) {
	h.device.BindTexture(target, lookup(h.textures, texture))
}

func (h *Host) BlendFunc(sfactor, dfactor uint32) { h.device.BlendFunc(sfactor, dfactor) }

// BufferData uploads count bytes at dataPtr. A zero pointer allocates
// storage without contents.
func (h *Host) BufferData(m playhost.Memory, target, count, dataPtr, usage uint32) {
	var data []byte
	if dataPtr != 0 {
		data = must(memory.ReadBytes(m, dataPtr, count))
	} else {
		data = make([]byte, count)
	}
	h.device.BufferData(target, data, usage)
}

func (h *Host) CheckFramebufferStatus(target uint32) uint32 {
	return h.device.CheckFramebufferStatus(target)
}

func (h *Host) Clear(mask uint32) { h.device.Clear(mask) }

func (h *Host) ClearColor(r, g, b, a float32) { h.device.ClearColor(r, g, b, a) }

func (h *Host) CompileShader(shader uint32) {
	h.device.CompileShader(resolve(h.shaders, shader))
}

func (h *Host) GetShaderiv(m playhost.Memory, shader, pname, outPtr uint32) {
	v := h.device.ShaderParameter(resolve(h.shaders, shader), pname)
	check(memory.WriteI32(m, outPtr, v))
}

func (h *Host) CreateBuffer() uint32 {
	return uint32(h.buffers.Allocate(h.device.CreateBuffer()))
}

func (h *Host) GenBuffers(m playhost.Memory, n, ptr uint32) {
	gen(m, h.buffers, n, ptr, h.device.CreateBuffer)
}

func (h *Host) CreateFramebuffer() uint32 {
	return uint32(h.framebuffers.Allocate(h.device.CreateFramebuffer()))
}

func (h *Host) CreateProgram() uint32 {
	return uint32(h.programs.Allocate(h.device.CreateProgram()))
}

func (h *Host) CreateShader(kind uint32) uint32 {
	return uint32(h.shaders.Allocate(h.device.CreateShader(kind)))
}

func (h *Host) GenTextures(m playhost.Memory, n, ptr uint32) {
	gen(m, h.textures, n, ptr, h.device.CreateTexture)
}

func (h *Host) GenVertexArrays(m playhost.Memory, n, ptr uint32) {
	gen(m, h.vertexArrays, n, ptr, h.device.CreateVertexArray)
}

func (h *Host) DeleteBuffers(m playhost.Memory, n, ptr uint32) {
	remove(m, h.buffers, n, ptr, h.device.DeleteBuffer)
}

func (h *Host) DeleteTextures(m playhost.Memory, n, ptr uint32) {
	remove(m, h.textures, n, ptr, h.device.DeleteTexture)
}

func (h *Host) DeleteVertexArrays(m playhost.Memory, n, ptr uint32) {
	remove(m, h.vertexArrays, n, ptr, h.device.DeleteVertexArray)
}

func (h *Host) DeleteFramebuffer(fb uint32) {
	h.device.DeleteFramebuffer(must(h.framebuffers.Release(resource.Handle(fb))))
}

func (h *Host) DeleteShader(shader uint32) {
	h.device.DeleteShader(must(h.shaders.Release(resource.Handle(shader))))
}

// DeleteProgram also releases every uniform location handle obtained
// from the program.
func (h *Host) DeleteProgram(program uint32) {
	ph := resource.Handle(program)
	h.device.DeleteProgram(must(h.programs.Release(ph)))

	var stale []resource.Handle
	h.uniforms.Each(func(id resource.Handle, u uniform) bool {
		if u.program == ph {
			stale = append(stale, id)
		}
		return true
	})
	for _, id := range stale {
		_, _ = h.uniforms.Release(id)
	}
	if len(stale) > 0 {
		h.logger.Debug("released uniform locations",
			zap.Uint32("program", program),
			zap.Int("count", len(stale)))
	}
}

func (h *Host) DepthFunc(fn uint32) { h.device.DepthFunc(fn) }

func (h *Host) Disable(capability uint32) { h.device.Disable(capability) }

func (h *Host) Enable(capability uint32) { h.device.Enable(capability) }

func (h *Host) DrawArrays(mode uint32, first, count int32) {
	h.device.DrawArrays(mode, first, count)
}

func (h *Host) DrawElements(mode uint32, count int32, typ, offset uint32) {
	h.device.DrawElements(mode, count, typ, offset)
}

func (h *Host) EnableVertexAttribArray(index uint32) { h.device.EnableVertexAttribArray(index) }

func (h *Host) FramebufferTexture2D(target, attachment, textarget, texture uint32, level int32) {
	h.device.FramebufferTexture2D(target, attachment, textarget, lookup(h.textures, texture), level)
}

func (h *Host) FrontFace(mode uint32) { h.device.FrontFace(mode) }

func (h *Host) GetAttribLocation(m playhost.Memory, program, namePtr, nameLen uint32) int32 {
	name := must(memory.ReadString(m, namePtr, nameLen))
	return h.device.AttribLocation(resolve(h.programs, program), name)
}

func (h *Host) GetError() uint32 { return h.device.Error() }

func (h *Host) GetShaderInfoLog(m playhost.Memory, shader, maxLength, lengthPtr, logPtr uint32) {
	log := h.device.ShaderInfoLog(resolve(h.shaders, shader))
	must(memory.WriteCString(m, logPtr, maxLength, lengthPtr, log))
}

// GetUniformLocation issues a fresh handle on every call, even for a name
// already queried.
func (h *Host) GetUniformLocation(m playhost.Memory, program, namePtr, nameLen uint32) uint32 {
	name := must(memory.ReadString(m, namePtr, nameLen))
	return h.uniformLocation(program, name)
}

// GetUniformLocationZ is GetUniformLocation for a NUL-terminated name.
func (h *Host) GetUniformLocationZ(m playhost.Memory, program, namePtr uint32) uint32 {
	name := must(memory.ReadCString(m, namePtr, maxUniformName))
	return h.uniformLocation(program, name)
}

func (h *Host) uniformLocation(program uint32, name string) uint32 {
	loc := h.device.UniformLocation(resolve(h.programs, program), name)
	return uint32(h.uniforms.Allocate(uniform{program: resource.Handle(program), loc: loc}))
}

func (h *Host) LinkProgram(program uint32) {
	h.device.LinkProgram(resolve(h.programs, program))
}

func (h *Host) GetProgramiv(m playhost.Memory, program, pname, outPtr uint32) {
	v := h.device.ProgramParameter(resolve(h.programs, program), pname)
	check(memory.WriteI32(m, outPtr, v))
}

func (h *Host) GetProgramInfoLog(m playhost.Memory, program, maxLength, lengthPtr, logPtr uint32) {
	log := h.device.ProgramInfoLog(resolve(h.programs, program))
	must(memory.WriteCString(m, logPtr, maxLength, lengthPtr, log))
}

func (h *Host) PixelStorei(pname uint32, param int32) { h.device.PixelStorei(pname, param) }

// ShaderSource concatenates count source fragments given as parallel
// pointer and length arrays.
func (h *Host) ShaderSource(m playhost.Memory, shader, count, ptrsPtr, lensPtr uint32) {
	parts := must(memory.ReadStrings(m, ptrsPtr, lensPtr, count))
	h.device.ShaderSource(resolve(h.shaders, shader), strings.Join(parts, ""))
}

// TexImage2D uploads width*height pixels of an RGBA or RGB image. A zero
// data pointer allocates the texture without contents.
func (h *Host) TexImage2D(m playhost.Memory, target uint32, level, internalFormat, width, height, border int32, format, typ, dataPtr uint32) {
	size, ok := pixelSize(format)
	if !ok {
		panic(errors.New(errors.PhaseGPU, errors.KindUnsupported).
			Path("webgl2", "texImage2D").
			Value(format).
			Detail("pixel format 0x%04x", format).
			Build())
	}
	if width < 0 || height < 0 {
		panic(errors.InvalidInput(errors.PhaseGPU, "negative texture size"))
	}
	var pixels []byte
	if dataPtr != 0 {
		n := uint64(width) * uint64(height) * uint64(size)
		if n > math.MaxUint32 {
			panic(errors.OutOfBounds(errors.PhaseGPU, dataPtr, math.MaxUint32, 0))
		}
		pixels = must(memory.ReadBytes(m, dataPtr, uint32(n)))
	}
	h.device.TexImage2D(target, level, internalFormat, width, height, border, format, typ, pixels)
}

func (h *Host) TexParameterf(target, pname uint32, param float32) {
	h.device.TexParameterf(target, pname, param)
}

func (h *Host) TexParameteri(target, pname uint32, param int32) {
	h.device.TexParameteri(target, pname, param)
}

func (h *Host) Uniform1f(location uint32, x float32) { h.device.Uniform1f(h.location(location), x) }

func (h *Host) Uniform1i(location uint32, x int32) { h.device.Uniform1i(h.location(location), x) }

func (h *Host) Uniform4f(location uint32, x, y, z, w float32) {
	h.device.Uniform4f(h.location(location), x, y, z, w)
}

// UniformMatrix4fv reads count 4x4 matrices at dataPtr.
func (h *Host) UniformMatrix4fv(m playhost.Memory, location, count, transpose, dataPtr uint32) {
	must(memory.Span(m, dataPtr, count, 64))
	values := must(memory.ReadF32s(m, dataPtr, count*16))
	h.device.UniformMatrix4fv(h.location(location), transpose != 0, values)
}

func (h *Host) UseProgram(program uint32) {
	h.device.UseProgram(lookup(h.programs, program))
}

func (h *Host) VertexAttribPointer(index uint32, size int32, typ, normalized uint32, stride int32, offset uint32) {
	h.device.VertexAttribPointer(index, size, typ, normalized != 0, stride, offset)
}

func (h *Host) Viewport(x, y, width, height int32) { h.device.Viewport(x, y, width, height) }

func (h *Host) Scissor(x, y, width, height int32) { h.device.Scissor(x, y, width, height) }

func (h *Host) GenerateMipmap(target uint32) { h.device.GenerateMipmap(target) }
