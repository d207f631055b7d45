// Package bridge correlates asynchronous host operations with integer
// slots the module can hold.
//
// The module cannot receive host futures, so every operation that
// completes later is registered under a slot:
//
//	f := b.Begin(ctx, "fetch", func(ctx context.Context, slot uint32) {
//	    go func() {
//	        data, err := fetcher.Fetch(ctx, url)
//	        if err != nil {
//	            b.Reject(slot, err)
//	            return
//	        }
//	        b.Resolve(slot, data)
//	    }()
//	})
//	f.Then(deliver, fail)
//
// Slots are issued lowest-free-first and recycled the moment an operation
// settles. Every operation settles exactly once; a second settle of the
// same slot reports errors.KindDoubleSettlement and is logged, never
// delivered. Continuations run on the Scheduler, the host's single task
// queue, so module resume entry points are never re-entered from inside
// Begin.
package bridge
