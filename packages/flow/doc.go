// Package flow defines the request record observed by the capturing proxy.
//
// A Flow is the read-only input of the script generator: method, scheme,
// host, decoded path segments, ordered query and header fields and the
// request body, plus the sequence number assigned when it was observed.
// Constructors exist for net/http style requests; importers build flows
// from their own formats.
package flow
