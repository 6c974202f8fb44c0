// Package queries contains read-only operations for dashboards.
//
// Each query has a SQL handler that reads the postgres tables directly and a
// repository handler that works on any store implementation, so the same
// HTTP surface runs against postgres and the in-memory store.
package queries
