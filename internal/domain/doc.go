// Package domain holds the task entity and its lifecycle rules: the status
// state machine, time accrual while a task is in progress, and the
// validation constraints on task fields. It has no dependencies on storage
// or transport.
package domain
