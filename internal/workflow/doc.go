// Package workflow coordinates mailbox analysis tasks.
//
// The manager owns the background side of the daemon: StartAnalysis
// validates a request, registers a task, and hands it to a worker
// goroutine that runs the fetch, batch, and three-call analysis
// pipeline against the mail source and the model providers. A retention
// sweeper expires finished tasks on a fixed cadence. Stop cancels the
// shared context and waits for in-flight analyses to drain.
//
// Batch failures are recorded as error results and never abort the
// remaining batches; only fetch failures fail the whole task.
package workflow
