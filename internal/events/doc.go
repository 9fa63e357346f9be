// Package events defines the domain events published by the task service
// and the Publisher interface used to deliver them.
//
// Publishing is decoupled from transport: the service emits events through
// the Publisher interface without knowing whether they end up on a message
// broker or only in the logs. Publish failures are reported to the caller
// but never block or roll back the state change that produced the event.
package events
