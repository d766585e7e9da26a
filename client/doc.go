// Package client implements a fluent HTTP request executor that captures
// response bodies into memory or, past a size threshold, a temporary file.
//
// # Describing a Request
//
// Create a [Request] with [NewRequest] and functional options. Further
// options can be applied with [Request.Apply] until the request is sent:
//
//	req, err := client.NewRequest(client.MethodGet, "https://api.example.com/v1/items",
//		client.WithParam("q", "gopher"),
//		client.WithHeader("Accept", "application/json"),
//		client.WithGzip(),
//	)
//
// Misconfiguration, such as setting both a text and a stream body or
// changing the encoding after parameters were added, is reported by
// NewRequest or Apply before any I/O happens.
//
// # Executing
//
// [Request.Execute] runs the request on the calling goroutine:
//
//	res, err := req.Execute(ctx)
//	if err != nil { ... }
//	defer res.Close()
//	body, err := res.ContentString()
//
// [Request.ExecuteAsync] hands the work to the request's [Executor], such as
// a [github.com/adamwoolhether/gocurl/client/pool.Pool], and reports through
// callbacks. The response is closed once the success callback returns:
//
//	req.ExecuteAsync(ctx,
//		func(res *client.Response) { ... },
//		func(err error) { ... },
//	)
//
// Without an executor the callbacks run before ExecuteAsync returns.
//
// # Response Content
//
// The body is fully read before Execute returns. Bodies up to the threshold
// (1 MiB by default, see [WithThreshold]) stay in memory; larger ones are
// written to a temporary file that [Response.Close] removes. A body that
// could not be captured does not fail the request: the status and headers
// remain available and the capture error is reported when the content is
// read.
package client
