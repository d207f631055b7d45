package gpu

// Object is a native GPU object name as issued by a Device. It is never
// shown to the module; the Host maps it behind a handle.
type Object uint32

// Location is a native uniform location. -1 means the uniform does not
// exist or was optimized away.
type Location int32

// Device is the rendering backend behind the webgl2 imports. Its methods
// mirror the WebGL2 calls modules use, with handles already resolved and
// memory already decoded.
type Device interface {
	ActiveTexture(unit uint32)
	AttachShader(program, shader Object)
	DetachShader(program, shader Object)
	BindBuffer(target uint32, buf Object)
	BindVertexArray(va Object)
	BindFramebuffer(target uint32, fb Object)
	BindTexture(target uint32, tex Object)
	BlendFunc(sfactor, dfactor uint32)
	BufferData(target uint32, data []byte, usage uint32)
	CheckFramebufferStatus(target uint32) uint32
	Clear(mask uint32)
	ClearColor(r, g, b, a float32)
	DepthFunc(fn uint32)
	Enable(capability uint32)
	Disable(capability uint32)
	FrontFace(mode uint32)
	PixelStorei(pname uint32, param int32)

	CreateBuffer() Object
	CreateFramebuffer() Object
	CreateProgram() Object
	CreateShader(kind uint32) Object
	CreateTexture() Object
	CreateVertexArray() Object
	DeleteBuffer(o Object)
	DeleteFramebuffer(o Object)
	DeleteProgram(o Object)
	DeleteShader(o Object)
	DeleteTexture(o Object)
	DeleteVertexArray(o Object)

	ShaderSource(shader Object, src string)
	CompileShader(shader Object)
	ShaderParameter(shader Object, pname uint32) int32
	ShaderInfoLog(shader Object) string
	LinkProgram(program Object)
	ProgramParameter(program Object, pname uint32) int32
	ProgramInfoLog(program Object) string
	UseProgram(program Object)
	AttribLocation(program Object, name string) int32
	UniformLocation(program Object, name string) Location

	Uniform1f(loc Location, x float32)
	Uniform1i(loc Location, x int32)
	Uniform4f(loc Location, x, y, z, w float32)
	UniformMatrix4fv(loc Location, transpose bool, values []float32)

	EnableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, typ uint32, normalized bool, stride int32, offset uint32)
	DrawArrays(mode uint32, first, count int32)
	DrawElements(mode uint32, count int32, typ uint32, offset uint32)

	FramebufferTexture2D(target, attachment, textarget uint32, tex Object, level int32)
	TexImage2D(target uint32, level, internalFormat, width, height, border int32, format, typ uint32, pixels []byte)
	TexParameterf(target, pname uint32, param float32)
	TexParameteri(target, pname uint32, param int32)
	GenerateMipmap(target uint32)

	Viewport(x, y, width, height int32)
	Scissor(x, y, width, height int32)
	Error() uint32
}
