// Package scheduler implements a greedy heuristic alternative to the exact
// optimizer. It ranks timesteps by a mode-dependent score and iteratively
// commits charge and discharge decisions, checking every candidate against
// the whole remaining trajectory so the state of charge never leaves its
// bounds. It is deterministic and solver-free, but not guaranteed optimal.
package scheduler
