// Package http provides HTTP handlers and middleware for the room booking API.
//
// The router exposes the following endpoints:
//   - GET /grid: the weekly availability grid for every room. Accepts
//     `week_start` (YYYY-MM-DD), `slot_min`, `work_start` and `work_end`
//     query parameters; defaults come from service configuration.
//   - GET /grid/next-gap: the next run of consecutive free slots on one room,
//     driven by the `room`, `week_start`, `start_col` and `steps` parameters.
//   - GET /grid/dashboard: today's bookings plus upcoming roomless events for
//     the acting user.
//   - POST /bookings: creates a reservation. A conflict detected by the
//     pre-write recheck is a 200 response carrying `conflict: true` and the
//     nearest later alternative, not an error.
//   - POST /bookings/assignments: attaches a room to an existing event. The
//     response status field is one of booked, already_assigned or conflict.
//   - DELETE /bookings/{eventID}: cancels a booking the acting user organized.
//   - GET /bookings/today, GET /bookings/suggestions: the personal views
//     backing the dashboard.
//
// Identity comes from the `X-User-Email` header, set by the authenticating
// reverse proxy in front of the service. Request/response DTOs live alongside
// their respective handlers so tests and documentation share the same ground
// truth.
package http
