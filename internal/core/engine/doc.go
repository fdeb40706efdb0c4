// Package engine evaluates habit schedules, streaks and completion
// aggregates.
//
// Every function is pure: habits are read, never modified, and no state is
// kept between calls. Dates are compared at day granularity after
// truncating them to midnight in the location of the date being evaluated.
package engine
