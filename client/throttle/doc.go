// Package throttle rate-limits outbound requests with a token bucket from
// [golang.org/x/time/rate].
//
// Every request executes on its own transport, so a [Throttle] is created
// once and shared by the requests it should govern:
//
//	th, err := throttle.New(10, 5, logger) // 10 rps, burst of 5
//	req, err := client.NewRequest(client.MethodGet, u, client.WithThrottle(th))
//
// When the budget is exhausted, a request blocks until a token becomes
// available or its context ends.
package throttle
