// Package http exposes a running vehicle over a chi router: status, mode
// and parameter control, the phase graph, stored sessions and a server-sent
// event stream of guidance events.
package http
