// Package posapi is the HTTP client for the POS backend REST API.
//
// # Overview
//
// Client wraps the JSON endpoints tally needs: product suggestions, the
// uniform {total, data} list endpoints, order creation and status updates,
// generic create/update/delete, stock movements, and authentication. It holds
// no screen state. Components above it own whatever they fetch.
//
// # Base URL
//
// The base URL keeps its path prefix, so "http://host:8000/api/v1" resolves
// "/products/suggest" to "http://host:8000/api/v1/products/suggest". Bare
// "host:port" values get an http:// scheme.
//
// # Authentication
//
// A TokenSource, normally *session.Manager, supplies the bearer token for each
// request. The client never stores tokens itself.
//
// # Errors
//
// Transport failures are wrapped with fmt.Errorf. Non-2xx responses become
// *APIError carrying the status and the FastAPI "detail" message, so callers
// can show the backend's explanation rather than a bare status code.
package posapi
