package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-playhost/errors"
	"github.com/wippyai/wasm-playhost/memory"
)

func newHost(t *testing.T) (*Host, *Recorder, *memory.Bytes) {
	t.Helper()
	rec := NewRecorder()
	return NewHost(rec), rec, memory.NewBytes(memory.PageSize)
}

func writeString(t *testing.T, m *memory.Bytes, ptr uint32, s string) uint32 {
	t.Helper()
	require.NoError(t, m.Write(ptr, []byte(s)))
	return uint32(len(s))
}

func panicErr(t *testing.T, fn func()) error {
	t.Helper()
	var got any
	func() {
		defer func() { got = recover() }()
		fn()
	}()
	require.NotNil(t, got, "expected panic")
	err, ok := got.(error)
	require.True(t, ok, "panic value should be an error, got %T", got)
	return err
}

func compileProgram(t *testing.T, h *Host, m *memory.Bytes) uint32 {
	t.Helper()
	src := writeString(t, m, 1000, "void main() {}")
	require.NoError(t, m.WriteU32(900, 1000))
	require.NoError(t, m.WriteU32(904, src))

	vs := h.CreateShader(VertexShader)
	fs := h.CreateShader(FragmentShader)
	for _, s := range []uint32{vs, fs} {
		h.ShaderSource(m, s, 1, 900, 904)
		h.CompileShader(s)
	}
	p := h.CreateProgram()
	h.AttachShader(p, vs)
	h.AttachShader(p, fs)
	h.LinkProgram(p)
	return p
}

func TestHost_GenAndDeleteReuseLIFO(t *testing.T) {
	h, rec, m := newHost(t)

	h.GenBuffers(m, 3, 64)
	ids, err := memory.ReadU32s(m, 64, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, ids)
	assert.Equal(t, 3, rec.Stats().LiveObjects)

	require.NoError(t, memory.WriteU32s(m, 128, []uint32{1, 3}))
	h.DeleteBuffers(m, 2, 128)
	assert.Equal(t, 1, rec.Stats().LiveObjects)

	assert.Equal(t, uint32(3), h.CreateBuffer(), "most recently released id comes back first")
	assert.Equal(t, uint32(1), h.CreateBuffer())
	assert.Equal(t, uint32(4), h.CreateBuffer())
}

func TestHost_CategoriesAreIndependent(t *testing.T) {
	h, _, m := newHost(t)

	b := h.CreateBuffer()
	h.GenTextures(m, 1, 64)
	tex, err := m.ReadU32(64)
	require.NoError(t, err)
	assert.Equal(t, b, tex, "same integer, different registries")

	h.BindBuffer(0x8892, b)
	h.BindTexture(0x0DE1, tex)
}

func TestHost_InvalidHandlePanics(t *testing.T) {
	h, _, _ := newHost(t)

	err := panicErr(t, func() { h.CompileShader(7) })
	assert.ErrorIs(t, err, errors.ErrInvalidHandle)

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "shader", e.Category)

	err = panicErr(t, func() { h.DeleteProgram(1) })
	assert.ErrorIs(t, err, errors.ErrInvalidHandle)
}

func TestHost_ZeroHandleUnbinds(t *testing.T) {
	h, _, _ := newHost(t)

	assert.NotPanics(t, func() {
		h.BindBuffer(0x8892, 0)
		h.BindTexture(0x0DE1, 0)
		h.BindVertexArray(0)
		h.BindFramebuffer(0x8D40, 0)
		h.UseProgram(0)
		h.Uniform1f(0, 1)
	})
	assert.Panics(t, func() { h.AttachShader(0, 0) })
}

func TestHost_ShaderStatusAndInfoLog(t *testing.T) {
	h, _, m := newHost(t)

	s := h.CreateShader(VertexShader)
	h.CompileShader(s)
	h.GetShaderiv(m, s, CompileStatus, 64)
	status, err := memory.ReadI32(m, 64)
	require.NoError(t, err)
	assert.Equal(t, int32(0), status)

	h.GetShaderInfoLog(m, s, 8, 68, 200)
	n, err := m.ReadU32(68)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), n)
	got, err := memory.ReadCString(m, 200, 8)
	require.NoError(t, err)
	assert.Equal(t, "ERROR: ", got)

	p := compileProgram(t, h, m)
	h.GetProgramiv(m, p, LinkStatus, 64)
	status, err = memory.ReadI32(m, 64)
	require.NoError(t, err)
	assert.Equal(t, int32(1), status)
}

func TestHost_UniformLocationsRetireWithProgram(t *testing.T) {
	h, _, m := newHost(t)
	p := compileProgram(t, h, m)

	n := writeString(t, m, 2000, "u_color")
	a := h.GetUniformLocation(m, p, 2000, n)
	b := h.GetUniformLocation(m, p, 2000, n)
	assert.NotEqual(t, a, b, "every query issues a fresh handle")

	writeString(t, m, 2100, "u_mvp\x00")
	z := h.GetUniformLocationZ(m, p, 2100)
	assert.Equal(t, 3, h.Live()["uniform_location"])

	h.Uniform4f(a, 1, 0, 0, 1)
	h.DeleteProgram(p)
	assert.Equal(t, 0, h.Live()["uniform_location"])

	err := panicErr(t, func() { h.Uniform1i(z, 1) })
	assert.ErrorIs(t, err, errors.ErrInvalidHandle)

	p2 := compileProgram(t, h, m)
	c := h.GetUniformLocation(m, p2, 2000, n)
	assert.Greater(t, c, z, "retired location ids are never reissued")
}

func TestHost_AttribLocation(t *testing.T) {
	h, _, m := newHost(t)
	p := compileProgram(t, h, m)

	n := writeString(t, m, 3000, "a_pos")
	assert.Equal(t, int32(0), h.GetAttribLocation(m, p, 3000, n))
	n2 := writeString(t, m, 3100, "a_uv")
	assert.Equal(t, int32(1), h.GetAttribLocation(m, p, 3100, n2))
	assert.Equal(t, int32(0), h.GetAttribLocation(m, p, 3000, n))
}

func TestHost_TexImage2D(t *testing.T) {
	h, rec, m := newHost(t)
	h.GenTextures(m, 1, 64)

	h.TexImage2D(m, 0x0DE1, 0, RGBA, 2, 2, 0, RGBA, 0x1401, 256)
	h.TexImage2D(m, 0x0DE1, 0, RGB, 2, 2, 0, RGB, 0x1401, 0)
	assert.Equal(t, 2, rec.Stats().TextureUploads)

	err := panicErr(t, func() {
		h.TexImage2D(m, 0x0DE1, 0, 0x1909, 1, 1, 0, 0x1909, 0x1401, 256)
	})
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindUnsupported, e.Kind)

	err = panicErr(t, func() {
		h.TexImage2D(m, 0x0DE1, 0, RGBA, 256, 256, 0, RGBA, 0x1401, 256)
	})
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindOutOfBounds, e.Kind)
}

func TestHost_TexImage2DSizeOverflow(t *testing.T) {
	h, rec, m := newHost(t)
	h.GenTextures(m, 1, 64)

	// 65536*65536*4 wraps to 0 in 32 bits
	err := panicErr(t, func() {
		h.TexImage2D(m, 0x0DE1, 0, RGBA, 65536, 65536, 0, RGBA, 0x1401, 64)
	})
	assert.ErrorIs(t, err, errors.ErrOutOfBounds)
	assert.Zero(t, rec.Stats().TextureUploads)
}

func TestHost_GenOutOfRangeCreatesNothing(t *testing.T) {
	h, rec, m := newHost(t)

	err := panicErr(t, func() { h.GenBuffers(m, 4, memory.PageSize-4) })
	assert.ErrorIs(t, err, errors.ErrOutOfBounds)
	assert.Zero(t, h.Live()["buffer"])
	assert.Zero(t, rec.Stats().LiveObjects)

	h.GenBuffers(m, 1, 64)
	id, err := m.ReadU32(64)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), id)
}

func TestHost_HugeCountsTrap(t *testing.T) {
	h, _, m := newHost(t)
	p := compileProgram(t, h, m)
	n := writeString(t, m, 2000, "u_mvp")
	loc := h.GetUniformLocation(m, p, 2000, n)

	err := panicErr(t, func() { h.DeleteBuffers(m, 0xFFFFFFFF, 64) })
	assert.ErrorIs(t, err, errors.ErrOutOfBounds)

	// 0x10000000 matrices is 0 floats after a 32-bit wrap
	err = panicErr(t, func() { h.UniformMatrix4fv(m, loc, 0x10000000, 0, 0) })
	assert.ErrorIs(t, err, errors.ErrOutOfBounds)
}

func TestHost_DrawAndClear(t *testing.T) {
	h, rec, m := newHost(t)

	h.ClearColor(0.1, 0.2, 0.3, 1)
	h.Clear(ColorBufferBit | DepthBufferBit)
	h.BufferData(m, 0x8892, 16, 512, 0x88E4)
	h.BufferData(m, 0x8892, 32, 0, 0x88E4)
	h.DrawArrays(4, 0, 3)
	h.DrawElements(4, 6, 0x1403, 0)
	h.Viewport(0, 0, 320, 200)

	s := rec.Stats()
	assert.Equal(t, 2, s.DrawCalls)
	assert.Equal(t, 1, s.Clears)
	assert.Equal(t, 48, s.BufferBytes)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, s.LastClearColor)
	assert.Equal(t, [4]int32{0, 0, 320, 200}, s.Viewport)
	assert.Equal(t, uint32(NoError), h.GetError())
	assert.Equal(t, uint32(FramebufferComplete), h.CheckFramebufferStatus(0x8D40))
}

func TestHost_UniformMatrix(t *testing.T) {
	h, _, m := newHost(t)
	p := compileProgram(t, h, m)
	n := writeString(t, m, 2000, "u_mvp")
	loc := h.GetUniformLocation(m, p, 2000, n)

	for i := uint32(0); i < 16; i++ {
		require.NoError(t, m.WriteF32(4096+i*4, float32(i)))
	}
	assert.NotPanics(t, func() { h.UniformMatrix4fv(m, loc, 1, 0, 4096) })
	assert.Panics(t, func() { h.UniformMatrix4fv(m, loc, 2000, 0, memory.PageSize-8) })
}

func TestHost_CloseDeletesEverything(t *testing.T) {
	h, rec, m := newHost(t)
	compileProgram(t, h, m)
	h.GenBuffers(m, 2, 64)
	h.CreateFramebuffer()
	require.Positive(t, rec.Stats().LiveObjects)

	require.NoError(t, h.Close())
	assert.Equal(t, 0, rec.Stats().LiveObjects)
}

func TestHost_SetDevice(t *testing.T) {
	h, first, _ := newHost(t)
	second := NewRecorder()

	h.Clear(ColorBufferBit)
	h.SetDevice(second)
	h.Clear(ColorBufferBit)
	h.Clear(ColorBufferBit)

	assert.Same(t, second, h.Device())
	assert.Equal(t, 1, first.Stats().Clears)
	assert.Equal(t, 2, second.Stats().Clears)
}

func TestHost_RegisterCoversImports(t *testing.T) {
	h, _, _ := newHost(t)
	funcs := h.Register()

	for _, name := range []string{
		"activeTexture", "attachShader", "bindBuffer", "bindVertexArray", "bindFramebuffer",
		"bindTexture", "blendFunc", "bufferData", "checkFramebufferStatus", "clear", "clearColor",
		"compileShader", "getShaderiv", "createBuffer", "genBuffers", "createFramebuffer",
		"createProgram", "createShader", "genTextures", "deleteBuffers", "deleteProgram",
		"deleteShader", "deleteTextures", "deleteVertexArrays", "deleteFramebuffer", "depthFunc",
		"detachShader", "disable", "genVertexArrays", "drawArrays", "drawElements", "enable",
		"enableVertexAttribArray", "framebufferTexture2D", "frontFace", "getAttribLocation",
		"getError", "getShaderInfoLog", "getUniformLocation", "getUniformLocationZ", "linkProgram",
		"getProgramiv", "getProgramInfoLog", "pixelStorei", "shaderSource", "texImage2D",
		"texParameterf", "texParameteri", "uniform1f", "uniform1i", "uniform4f", "uniformMatrix4fv",
		"useProgram", "vertexAttribPointer", "viewport", "scissor", "generateMipmap",
	} {
		assert.Contains(t, funcs, name)
	}
	assert.Equal(t, "webgl2", h.Namespace())
}
