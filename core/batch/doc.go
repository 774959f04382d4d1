// Package batch executes a list of work items in bounded, paced batches.
//
// Items are partitioned into consecutive chunks of at most Config.Size elements.
// Every item of a chunk runs concurrently; the chunk is joined before the pipeline
// pauses for Config.Delay and moves on to the next chunk. The pause keeps the
// aggregate request rate against a remote API below its quota.
//
// # Failure Semantics
//
// A failing operation yields an *ItemError in its result slot. It never cancels the
// other items of the chunk, is never retried and is never returned from Run itself.
// Results always come back in input order, one per item.
//
// # Usage
//
//	results := batch.Run(ctx, batch.Config{Size: 100, Delay: time.Minute}, listings,
//	    func(ctx context.Context, l Listing) (string, error) {
//	        return store.Upsert(ctx, l)
//	    })
package batch
