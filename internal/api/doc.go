// Package api serves the local read-only status endpoint of the reading
// scheduler. It exposes the notes the scheduler tracks and the reading timers
// it keeps, formatted as JSON, for inspection while `scry-notes watch` runs.
package api
