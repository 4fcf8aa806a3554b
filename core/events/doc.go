// Package events defines the optimisation run events emitted on the event bus.
//
// Available event types:
//   - RunStarted: a job was accepted and the solve begins
//   - RunFinished: the job produced a distribution
//   - RunFailed: validation, optimisation or the engine failed
package events
