// Package listsync reconciles a paginated, filterable remote query with the
// local state of a list screen.
//
// Each Controller owns one State. Filter, page and page size changes go
// through the Controller, which tags every request with an increasing epoch
// and applies a response only if its epoch is still the newest. Slow responses
// to superseded requests are discarded instead of cancelled.
package listsync
