// Package resources binds the backend's list endpoints to list controllers.
//
// Each Screen names a resource path and its filter defaults. A Set holds one
// controller per screen for a signed-in session, with the orders list pinned
// to the current user when that user is not an admin. Mutator performs the
// create, update, delete and stock writes and then asks the affected list to
// refetch.
package resources
