package gpu

// GL enumerants the host interprets itself. Everything else passes through
// to the Device untouched.
const (
	NoError = 0

	RGB  = 0x1907
	RGBA = 0x1908

	FragmentShader = 0x8B30
	VertexShader   = 0x8B31
	CompileStatus  = 0x8B81
	LinkStatus     = 0x8B82
	InfoLogLength  = 0x8B84

	FramebufferComplete = 0x8CD5

	ColorBufferBit   = 0x4000
	DepthBufferBit   = 0x0100
	StencilBufferBit = 0x0400
)

// pixelSize returns bytes per pixel for the formats texImage2D can size.
func pixelSize(format uint32) (uint32, bool) {
	switch format {
	case RGBA:
		return 4, true
	case RGB:
		return 3, true
	default:
		return 0, false
	}
}
