package gpu

import (
	"strings"
	"sync"
)

// Stats is a snapshot of what a Recorder has seen.
type Stats struct {
	DrawCalls      int
	Clears         int
	LiveObjects    int
	BufferBytes    int
	TextureUploads int
	LastClearColor [4]float32
	Viewport       [4]int32
}

type shaderState struct {
	source   string
	compiled bool
	log      string
}

type programState struct {
	shaders   map[Object]struct{}
	linked    bool
	log       string
	uniforms  map[string]Location
	attribs   map[string]int32
	nextAttr  int32
	nextUnifm Location
}

// Recorder is a headless Device. It issues synthetic object names, keeps
// enough shader and program state to answer status queries, and counts
// the work it was asked to do.
type Recorder struct {
	shaders  map[Object]*shaderState
	programs map[Object]*programState
	live     map[Object]string
	stats    Stats
	next     Object
	mu       sync.Mutex
}

// NewRecorder creates an empty recording device.
func NewRecorder() *Recorder {
	return &Recorder{
		shaders:  make(map[Object]*shaderState),
		programs: make(map[Object]*programState),
		live:     make(map[Object]string),
	}
}

// Stats returns a snapshot of the counters.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats
	s.LiveObjects = len(r.live)
	return s
}

func (r *Recorder) create(kind string) Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.live[r.next] = kind
	return r.next
}

func (r *Recorder) remove(o Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, o)
	delete(r.shaders, o)
	delete(r.programs, o)
}

func (r *Recorder) CreateBuffer() Object      { return r.create("buffer") }
func (r *Recorder) CreateFramebuffer() Object { return r.create("framebuffer") }
func (r *Recorder) CreateTexture() Object     { return r.create("texture") }
func (r *Recorder) CreateVertexArray() Object { return r.create("vertex_array") }

func (r *Recorder) CreateShader(kind uint32) Object {
	o := r.create("shader")
	r.mu.Lock()
	r.shaders[o] = &shaderState{}
	r.mu.Unlock()
	return o
}

func (r *Recorder) CreateProgram() Object {
	o := r.create("program")
	r.mu.Lock()
	r.programs[o] = &programState{
		shaders:  make(map[Object]struct{}),
		uniforms: make(map[string]Location),
		attribs:  make(map[string]int32),
	}
	r.mu.Unlock()
	return o
}

func (r *Recorder) DeleteBuffer(o Object)      { r.remove(o) }
func (r *Recorder) DeleteFramebuffer(o Object) { r.remove(o) }
func (r *Recorder) DeleteProgram(o Object)     { r.remove(o) }
func (r *Recorder) DeleteShader(o Object)      { r.remove(o) }
func (r *Recorder) DeleteTexture(o Object)     { r.remove(o) }
func (r *Recorder) DeleteVertexArray(o Object) { r.remove(o) }

func (r *Recorder) ShaderSource(shader Object, src string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.shaders[shader]; ok {
		s.source = src
		s.compiled = false
	}
}

// CompileShader accepts any non-blank source.
func (r *Recorder) CompileShader(shader Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shaders[shader]
	if !ok {
		return
	}
	s.compiled = strings.TrimSpace(s.source) != ""
	if s.compiled {
		s.log = ""
	} else {
		s.log = "ERROR: 0:1: empty shader source"
	}
}

func (r *Recorder) ShaderParameter(shader Object, pname uint32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shaders[shader]
	if !ok {
		return 0
	}
	switch pname {
	case CompileStatus:
		return boolToInt(s.compiled)
	case InfoLogLength:
		return logLength(s.log)
	}
	return 0
}

func (r *Recorder) ShaderInfoLog(shader Object) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.shaders[shader]; ok {
		return s.log
	}
	return ""
}

func (r *Recorder) AttachShader(program, shader Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.programs[program]; ok {
		p.shaders[shader] = struct{}{}
	}
}

func (r *Recorder) DetachShader(program, shader Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.programs[program]; ok {
		delete(p.shaders, shader)
	}
}

// LinkProgram succeeds when every attached shader compiled and at least
// two are attached.
func (r *Recorder) LinkProgram(program Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.programs[program]
	if !ok {
		return
	}
	p.linked = len(p.shaders) >= 2
	for o := range p.shaders {
		if s, ok := r.shaders[o]; !ok || !s.compiled {
			p.linked = false
		}
	}
	if p.linked {
		p.log = ""
	} else {
		p.log = "ERROR: program needs two compiled shaders"
	}
}

func (r *Recorder) ProgramParameter(program Object, pname uint32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.programs[program]
	if !ok {
		return 0
	}
	switch pname {
	case LinkStatus:
		return boolToInt(p.linked)
	case InfoLogLength:
		return logLength(p.log)
	}
	return 0
}

func (r *Recorder) ProgramInfoLog(program Object) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.programs[program]; ok {
		return p.log
	}
	return ""
}

// AttribLocation assigns locations in first-query order.
func (r *Recorder) AttribLocation(program Object, name string) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.programs[program]
	if !ok || !p.linked {
		return -1
	}
	if loc, ok := p.attribs[name]; ok {
		return loc
	}
	loc := p.nextAttr
	p.attribs[name] = loc
	p.nextAttr++
	return loc
}

// UniformLocation assigns locations in first-query order.
func (r *Recorder) UniformLocation(program Object, name string) Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.programs[program]
	if !ok || !p.linked {
		return -1
	}
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := p.nextUnifm
	p.uniforms[name] = loc
	p.nextUnifm++
	return loc
}

func (r *Recorder) BufferData(target uint32, data []byte, usage uint32) {
	r.mu.Lock()
	r.stats.BufferBytes += len(data)
	r.mu.Unlock()
}

func (r *Recorder) TexImage2D(target uint32, level, internalFormat, width, height, border int32, format, typ uint32, pixels []byte) {
	r.mu.Lock()
	r.stats.TextureUploads++
	r.mu.Unlock()
}

func (r *Recorder) Clear(mask uint32) {
	r.mu.Lock()
	r.stats.Clears++
	r.mu.Unlock()
}

func (r *Recorder) ClearColor(red, green, blue, alpha float32) {
	r.mu.Lock()
	r.stats.LastClearColor = [4]float32{red, green, blue, alpha}
	r.mu.Unlock()
}

func (r *Recorder) DrawArrays(mode uint32, first, count int32) {
	r.mu.Lock()
	r.stats.DrawCalls++
	r.mu.Unlock()
}

func (r *Recorder) DrawElements(mode uint32, count int32, typ uint32, offset uint32) {
	r.mu.Lock()
	r.stats.DrawCalls++
	r.mu.Unlock()
}

func (r *Recorder) Viewport(x, y, width, height int32) {
	r.mu.Lock()
	r.stats.Viewport = [4]int32{x, y, width, height}
	r.mu.Unlock()
}

func (r *Recorder) CheckFramebufferStatus(target uint32) uint32 { return FramebufferComplete }
func (r *Recorder) Error() uint32                               { return NoError }

func (r *Recorder) ActiveTexture(unit uint32)                                        {}
func (r *Recorder) BindBuffer(target uint32, buf Object)                             {}
func (r *Recorder) BindVertexArray(va Object)                                        {}
func (r *Recorder) BindFramebuffer(target uint32, fb Object)                         {}
func (r *Recorder) BindTexture(target uint32, tex Object)                            {}
func (r *Recorder) BlendFunc(sfactor, dfactor uint32)                                {}
func (r *Recorder) DepthFunc(fn uint32)                                              {}
func (r *Recorder) Enable(capability uint32)                                         {}
func (r *Recorder) Disable(capability uint32)                                        {}
func (r *Recorder) FrontFace(mode uint32)                                            {}
func (r *Recorder) PixelStorei(pname uint32, param int32)                            {}
func (r *Recorder) UseProgram(program Object)                                        {}
func (r *Recorder) Uniform1f(loc Location, x float32)                                {}
func (r *Recorder) Uniform1i(loc Location, x int32)                                  {}
func (r *Recorder) Uniform4f(loc Location, x, y, z, w float32)                       {}
func (r *Recorder) UniformMatrix4fv(loc Location, transpose bool, values []float32)  {}
func (r *Recorder) EnableVertexAttribArray(index uint32)                             {}
func (r *Recorder) TexParameterf(target, pname uint32, param float32)                {}
func (r *Recorder) TexParameteri(target, pname uint32, param int32)                  {}
func (r *Recorder) GenerateMipmap(target uint32)                                     {}
func (r *Recorder) Scissor(x, y, width, height int32)                                {}
func (r *Recorder) FramebufferTexture2D(target, attachment, textarget uint32, tex Object, level int32) {
}
func (r *Recorder) VertexAttribPointer(index uint32, size int32, typ uint32, normalized bool, stride int32, offset uint32) {
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// logLength counts the NUL terminator, as GL does; an empty log is 0.
func logLength(s string) int32 {
	if s == "" {
		return 0
	}
	return int32(len(s) + 1)
}

var _ Device = (*Recorder)(nil)
