// Package reports loads the read-only views: the dashboard with its sales
// report and low-stock list, and the detail of a single order.
//
// Service.Dashboard fetches its three sections concurrently. Each section
// keeps its own error, so one failing endpoint leaves the others on screen.
// Service.Order names every item's product, fetching the products the
// backend left out and remembering names for a while.
package reports
