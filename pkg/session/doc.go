// Package session coordinates concurrent blueprint runs on a shared engine.
//
// A Manager wraps a ports.BlueprintRunner: runs of the same blueprint are serialized
// (locally, and across replicas when a ports.DistributedLocker is configured), and the
// shared state is checkpointed to a ports.StateStore after every run.
package session
