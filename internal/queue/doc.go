// Package queue provides serialized task queues.
//
// Each subsystem owns one Queue; all of its state is touched only from tasks
// running on that queue, so no locks are needed around it. Other subsystems
// interact by posting tasks. Delayed tasks are scheduled through a Clock so
// tests can drive time explicitly with FakeClock.
package queue
