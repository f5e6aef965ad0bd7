// Package worker implements the actors moving bicycles through the network:
// trucks redistributing stock, technicians repairing broken bicycles and
// users renting them for one trip.
//
// Every worker blocks only on signals, semaphores and context-aware sleeps,
// and never holds a station lock across one of them. Cancelling the context
// stops a worker; Run then returns nil.
package worker
