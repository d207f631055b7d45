// Package audio forwards the module's audio imports to an Engine.
//
// The module builds a small graph: sound nodes play decoded sounds,
// biquad, mixer and delay nodes shape them, and connectToOutput routes a
// node to the speakers. Sounds load asynchronously; the module learns
// the sound handle when the load settles. NullEngine keeps the graph
// without producing sound and is what headless runs use.
package audio
