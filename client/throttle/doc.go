// Package throttle paces outbound requests with a token bucket from
// [golang.org/x/time/rate].
//
// [NewRoundTripper] wraps a transport; every request sent through it
// takes a token, and waits for one when the bucket is empty:
//
//	rt, err := throttle.NewRoundTripper(throttle.Config{RPS: 5, Burst: 1}, nil, http.DefaultTransport)
//
// A request whose context ends while waiting fails with
// [ErrWaitingFailed] and gives its token back.
package throttle
