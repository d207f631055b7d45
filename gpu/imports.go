package gpu

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	playhost "github.com/wippyai/wasm-playhost"
	"github.com/wippyai/wasm-playhost/memory"
)

// Namespace is the import module name the forwarders are exported under.
const Namespace = "webgl2"

func mem(mod api.Module) playhost.Memory { return memory.Wrap(mod.Memory()) }

// Namespace returns the import module name.
func (h *Host) Namespace() string { return Namespace }

// Register returns the webgl2 host functions keyed by import name.
func (h *Host) Register() map[string]any {
	getAttribLocation := func(_ context.Context, mod api.Module, program, namePtr, nameLen uint32) int32 {
		return h.GetAttribLocation(mem(mod), program, namePtr, nameLen)
	}
	getUniformLocation := func(_ context.Context, mod api.Module, program, namePtr, nameLen uint32) uint32 {
		return h.GetUniformLocation(mem(mod), program, namePtr, nameLen)
	}

	return map[string]any{
		"activeTexture":   h.ActiveTexture,
		"attachShader":    h.AttachShader,
		"bindBuffer":      h.BindBuffer,
		"bindVertexArray": h.BindVertexArray,
		"bindFramebuffer": h.BindFramebuffer,
		"bindTexture":     h.BindTexture,
		"blendFunc":       h.BlendFunc,
		"bufferData": func(_ context.Context, mod api.Module, target, count, dataPtr, usage uint32) {
			h.BufferData(mem(mod), target, count, dataPtr, usage)
		},
		"checkFramebufferStatus": h.CheckFramebufferStatus,
		"clear":                  h.Clear,
		"clearColor":             h.ClearColor,
		"compileShader":          h.CompileShader,
		"getShaderiv": func(_ context.Context, mod api.Module, shader, pname, outPtr uint32) {
			h.GetShaderiv(mem(mod), shader, pname, outPtr)
		},
		"createBuffer": h.CreateBuffer,
		"genBuffers": func(_ context.Context, mod api.Module, n, ptr uint32) {
			h.GenBuffers(mem(mod), n, ptr)
		},
		"createFramebuffer": h.CreateFramebuffer,
		"createProgram":     h.CreateProgram,
		"createShader":      h.CreateShader,
		"genTextures": func(_ context.Context, mod api.Module, n, ptr uint32) {
			h.GenTextures(mem(mod), n, ptr)
		},
		"deleteBuffers": func(_ context.Context, mod api.Module, n, ptr uint32) {
			h.DeleteBuffers(mem(mod), n, ptr)
		},
		"deleteProgram": h.DeleteProgram,
		"deleteShader":  h.DeleteShader,
		"deleteTextures": func(_ context.Context, mod api.Module, n, ptr uint32) {
			h.DeleteTextures(mem(mod), n, ptr)
		},
		"deleteVertexArrays": func(_ context.Context, mod api.Module, n, ptr uint32) {
			h.DeleteVertexArrays(mem(mod), n, ptr)
		},
		"deleteFramebuffer": h.DeleteFramebuffer,
		"depthFunc":         h.DepthFunc,
		"detachShader":      h.DetachShader,
		"disable":           h.Disable,
		"genVertexArrays": func(_ context.Context, mod api.Module, n, ptr uint32) {
			h.GenVertexArrays(mem(mod), n, ptr)
		},
		"drawArrays":              h.DrawArrays,
		"drawElements":            h.DrawElements,
		"enable":                  h.Enable,
		"enableVertexAttribArray": h.EnableVertexAttribArray,
		"framebufferTexture2D":    h.FramebufferTexture2D,
		"frontFace":               h.FrontFace,
		"getAttribLocation":       getAttribLocation,
		"getAttribLocation_":      getAttribLocation,
		"getError":                h.GetError,
		"getShaderInfoLog": func(_ context.Context, mod api.Module, shader, maxLength, lengthPtr, logPtr uint32) {
			h.GetShaderInfoLog(mem(mod), shader, maxLength, lengthPtr, logPtr)
		},
		"getUniformLocation":  getUniformLocation,
		"getUniformLocation_": getUniformLocation,
		"getUniformLocationZ": func(_ context.Context, mod api.Module, program, namePtr uint32) uint32 {
			return h.GetUniformLocationZ(mem(mod), program, namePtr)
		},
		"linkProgram": h.LinkProgram,
		"getProgramiv": func(_ context.Context, mod api.Module, program, pname, outPtr uint32) {
			h.GetProgramiv(mem(mod), program, pname, outPtr)
		},
		"getProgramInfoLog": func(_ context.Context, mod api.Module, program, maxLength, lengthPtr, logPtr uint32) {
			h.GetProgramInfoLog(mem(mod), program, maxLength, lengthPtr, logPtr)
		},
		"pixelStorei": h.PixelStorei,
		"shaderSource": func(_ context.Context, mod api.Module, shader, count, ptrsPtr, lensPtr uint32) {
			h.ShaderSource(mem(mod), shader, count, ptrsPtr, lensPtr)
		},
		"texImage2D": func(_ context.Context, mod api.Module, target uint32, level, internalFormat, width, height, border int32, format, typ, dataPtr uint32) {
			h.TexImage2D(mem(mod), target, level, internalFormat, width, height, border, format, typ, dataPtr)
		},
		"texParameterf": h.TexParameterf,
		"texParameteri": h.TexParameteri,
		"uniform1f":     h.Uniform1f,
		"uniform1i":     h.Uniform1i,
		"uniform4f":     h.Uniform4f,
		"uniformMatrix4fv": func(_ context.Context, mod api.Module, location, count, transpose, dataPtr uint32) {
			h.UniformMatrix4fv(mem(mod), location, count, transpose, dataPtr)
		},
		"useProgram":          h.UseProgram,
		"vertexAttribPointer": h.VertexAttribPointer,
		"viewport":            h.Viewport,
		"scissor":             h.Scissor,
		"generateMipmap":      h.GenerateMipmap,
	}
}
