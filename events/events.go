// Package events carries progress and error signalling out of the engine,
// and the small amount of host configuration the engine consumes. The
// interactive caller implements Monitor; everything else uses the no-op
// default.
package events

import "log"

// A TaskKind labels what a task event describes.
type TaskKind string

const (
	// TaskStart fires when a run begins work on a bag.
	TaskStart TaskKind = "start"
	// TaskAdd fires when a file is added to the run's file map.
	TaskAdd TaskKind = "add"
	// TaskChecksum fires when a file's digests have been computed.
	TaskChecksum TaskKind = "checksum"
	// TaskRead fires when a file is about to be read.
	TaskRead TaskKind = "read"
)

// A Monitor receives progress and error events from a validation or
// bagging run. Implementations must be safe for concurrent use: the
// validator reports per-file task events from its hashing goroutines.
type Monitor interface {
	OnTask(kind TaskKind, relPath, message string, percent int)
	OnError(message string)
	OnEnd()
}

// NopMonitor ignores every event.
type NopMonitor struct{}

// OnTask implements Monitor.
func (NopMonitor) OnTask(TaskKind, string, string, int) {}

// OnError implements Monitor.
func (NopMonitor) OnError(string) {}

// OnEnd implements Monitor.
func (NopMonitor) OnEnd() {}

// Config carries the host options the engine consumes. The zero value is
// usable.
type Config struct {
	// Infof and Errorf are the logging sinks. When nil, the stdlib
	// logger is used.
	Infof  func(format string, args ...interface{})
	Errorf func(format string, args ...interface{})

	// SlowMotionDelay, in milliseconds, is how long the engine pauses
	// between opening files. Zero means no pause. Used for UI pacing.
	SlowMotionDelay int

	// DisableSerializationCheck skips the serialization phase of
	// validation.
	DisableSerializationCheck bool
}

// Info logs through the configured info sink.
func (c Config) Info(format string, args ...interface{}) {
	if c.Infof != nil {
		c.Infof(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Error logs through the configured error sink.
func (c Config) Error(format string, args ...interface{}) {
	if c.Errorf != nil {
		c.Errorf(format, args...)
		return
	}
	log.Printf(format, args...)
}
