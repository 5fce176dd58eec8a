// Package log provides the zerolog-backed structured logger shared by the
// evaluator and actuators: a global instance configured once via Init, plus
// small helpers for attaching promise/bundle context to a child logger.
package log
