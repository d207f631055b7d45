// Package runtime hosts a guest module on a single event loop.
//
// A Platform ties the pieces together: the wazero engine, the
// completion bridge, the fixed-timestep clock, the keyboard translator
// and the capability hosts (webgl2, audio, files, fetch). Every call into
// the module happens on the loop goroutine; asynchronous work runs on
// bounded worker goroutines and only its completion is queued back.
//
//	p, err := runtime.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer p.Close(ctx)
//	if err := p.Load(ctx, bin, "game"); err != nil {
//		return err
//	}
//	return p.Run(ctx)
//
// # Guest protocol
//
// The module imports "playhost" functions. It calls run(maxDelta,
// tickDelta) to request the simulation loop: the host calls
// on_init(slot) from a later task, and once the module settles that slot
// through resolve_promise or reject_promise, the clock starts calling
// update(simTime, step) and render(alpha), all in seconds.
//
// Imports that start asynchronous work (fetch, file_read, file_write,
// audio load) return a slot immediately. When the work completes the
// host resumes the module with on_resolve(slot, ptr, len), after copying
// the result into a buffer obtained from alloc(len), or with
// on_reject(slot, errno). Error codes come from the module's
// ERRNO_OUT_OF_MEMORY, ERRNO_FILE_NOT_FOUND and ERRNO_UNKNOWN globals.
//
// quit stops the clock. The session ends once no operation is pending.
package runtime
