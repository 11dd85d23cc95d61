// Package ports declares the interfaces between the Sluice core and its
// infrastructure adapters: the backend transport, state persistence and
// distributed execution locking.
package ports
