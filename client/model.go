package client

import (
	"net/http"
)

// Method is an HTTP request method.
type Method string

const (
	MethodGet     Method = http.MethodGet
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodDelete  Method = http.MethodDelete
	MethodHead    Method = http.MethodHead
	MethodOptions Method = http.MethodOptions
	MethodTrace   Method = http.MethodTrace
	MethodConnect Method = http.MethodConnect
)

func (m Method) String() string {
	return string(m)
}

const (
	// DefaultEncoding is used for parameters, text bodies and decoded content.
	DefaultEncoding = "UTF-8"

	// DefaultThreshold is the body size above which content spills to disk.
	DefaultThreshold = 1 << 20 // 1MB

	// GzipCompression is the only compression token that is decoded.
	GzipCompression = "gzip"

	chunkSize = 4 << 10 // 4KB
)

// Conn is the connection state handed to a [ConnectFunc] after headers are
// set and before the body is written. The hook may change the outgoing
// request, set client timeouts, tune the transport or replace Client
// entirely; the request is sent through whatever Client holds once the hook
// returns. Transport is nil when a custom round tripper was supplied through
// [WithTransport].
type Conn struct {
	Request   *http.Request
	Client    *http.Client
	Transport *http.Transport
}

// ConnectFunc customizes the connection of a request about to be sent.
type ConnectFunc func(req *Request, conn *Conn)

// Executor runs asynchronous request executions. A request without an
// Executor runs them on the calling goroutine.
type Executor interface {
	Execute(task func()) error
}
