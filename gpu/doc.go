// Package gpu forwards the module's webgl2 imports to a rendering Device.
//
// The module never sees native GPU objects. Host keeps one handle
// registry per object category and resolves handles before every Device
// call. Recorder is a headless Device used by the terminal player and by
// tests.
package gpu
