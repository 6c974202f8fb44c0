// Package kernel holds the value objects shared by every aggregate of the
// dispatch domain:
//   - UUID: identifiers for tasks, couriers, businesses and clients
//   - Location: a validated latitude/longitude pair
//   - DistanceKm / IsWithinRange: Haversine distance and the geofence check
//     gating pickup and delivery
package kernel
