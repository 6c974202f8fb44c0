// Package business models merchants and their saved clients. A business
// location is the pickup geofence anchor; a client location is the fallback
// delivery anchor.
package business
