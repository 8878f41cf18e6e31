// Package client provides single-use HTTP requests and responses built on
// [net/http].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithTimeout(10 * time.Second),
//		client.WithThrottle(5, 1),
//	)
//
// # Making Requests
//
// A [Request] is created, optionally configured, executed once and
// closed. Close is safe to defer right away:
//
//	qb := client.NewQueryBuilder("https://example.com/search").Append("q", "foo bar")
//	req, err := c.NewRequestFromQuery(ctx, qb)
//	if err != nil { ... }
//	defer req.Close()
//
//	resp, err := req.SetTimeout(5 * time.Second).Execute()
//	if err != nil { ... }
//	var result Result
//	err = resp.JSON(&result)
//
// Every body accessor on [Response] asserts a 2xx status first and
// returns a [*RequestError] otherwise; its message reads
// "<code>: <reason> (<url>)" followed by the server's error body.
// The body can be consumed once.
//
// # Authenticated Requests
//
// [Client.NewAuthenticatedRequest] adds the token from the configured
// [CredentialProvider] and the identification headers from the
// [MetadataProvider]. Relative URLs resolve against [DefaultBaseURL]:
//
//	req, err := c.NewAuthenticatedRequest(ctx, "/users/@me", http.MethodGet)
//
// # Downloading Files
//
// [Response.SaveToFile] writes to a temporary file next to the
// destination and renames it into place only once the content is
// complete and verified:
//
//	err = resp.SaveToFile("/data/plugin.zip", client.WithSHA1(expectedHex))
//
// A mismatch leaves the destination untouched and returns an
// [*IntegrityError] matching [ErrChecksumMismatch].
//
// # Async Downloads
//
// [Client.DownloadAsync] runs downloads on a [DownloadQueue] that bounds
// concurrency and collects errors:
//
//	q := client.NewDownloadQueue(4)
//	c.DownloadAsync(q, req1, "/data/a.zip")
//	c.DownloadAsync(q, req2, "/data/b.zip")
//	err = q.Wait()
//
// For lower-level control see the
// [github.com/aliucord/httpkit/client/download] package.
package client
