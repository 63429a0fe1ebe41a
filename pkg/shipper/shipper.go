// Package shipper prices shipping for sales orders and derives the order
// state changes that follow from quoting and booking.
//
// Everything in this package is pure: no I/O, no shared mutable state.
// Callers fetch orders, pass them in, and persist what comes back.
package shipper
