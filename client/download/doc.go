// Package download streams HTTP response bodies to disk with optional
// checksum validation and progress reporting.
//
// # Single Download
//
// [Handle] validates the destination, writes the body to a temporary file
// alongside it, verifies the optional checksum while the bytes are read,
// and then atomically renames the temporary file over the destination:
//
//	err := download.Handle(ctx, resp.Body, resp.ContentLength, "/srv/app/plugin.zip", logger,
//		download.WithSHA1("2fd4e1c67a2d28fced849ee1bb76e7391b93eb12"),
//	)
//
// The destination is never left half-written: on any failure it keeps
// whatever it held before the call.
//
// # Batches
//
// [Queue] runs independent downloads concurrently with an optional limit
// and joins their errors in [Queue.Wait].
//
// Most callers should use the higher-level
// [github.com/aliucord/httpkit/client] package, which invokes Handle from
// Response.SaveToFile and re-exports the options.
package download
