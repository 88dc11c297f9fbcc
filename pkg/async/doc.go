// Package async provides a small generic Future used to run network-backed
// validation checks off the caller's goroutine.
//
// Async starts a function and returns immediately; the Future exposes Await,
// AwaitContext, Done and IsComplete. WaitAll collects several futures and
// joins their errors, which is how a form waits for every pending validator
// before reporting results:
//
//	f := async.Async(ctx, value, func(ctx context.Context, v any) (bool, error) {
//	    return endpoint.Check(ctx, v)
//	})
//	ok, err := f.Await()
package async
