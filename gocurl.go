// Package gocurl exposes factories that start a request for each HTTP
// method. See package client for the request options and execution.
package gocurl

import (
	"github.com/adamwoolhether/gocurl/client"
)

// Get instantiates a GET request for url with the provided options.
func Get(url string, opts ...client.Option) (*client.Request, error) {
	return client.NewRequest(client.MethodGet, url, opts...)
}

// Post instantiates a POST request for url with the provided options.
func Post(url string, opts ...client.Option) (*client.Request, error) {
	return client.NewRequest(client.MethodPost, url, opts...)
}

// Put instantiates a PUT request for url with the provided options.
func Put(url string, opts ...client.Option) (*client.Request, error) {
	return client.NewRequest(client.MethodPut, url, opts...)
}

// Delete instantiates a DELETE request for url with the provided options.
func Delete(url string, opts ...client.Option) (*client.Request, error) {
	return client.NewRequest(client.MethodDelete, url, opts...)
}

// Head instantiates a HEAD request for url. The response never has content.
func Head(url string, opts ...client.Option) (*client.Request, error) {
	return client.NewRequest(client.MethodHead, url, opts...)
}

// Options instantiates an OPTIONS request for url with the provided options.
func Options(url string, opts ...client.Option) (*client.Request, error) {
	return client.NewRequest(client.MethodOptions, url, opts...)
}

// Trace instantiates a TRACE request for url with the provided options.
func Trace(url string, opts ...client.Option) (*client.Request, error) {
	return client.NewRequest(client.MethodTrace, url, opts...)
}

// Connect instantiates a CONNECT request for url with the provided options.
func Connect(url string, opts ...client.Option) (*client.Request, error) {
	return client.NewRequest(client.MethodConnect, url, opts...)
}
