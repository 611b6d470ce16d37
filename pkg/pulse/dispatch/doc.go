// Package dispatch applies integration operations to a fixed, ordered set of
// integrations on a single worker goroutine.
//
// Submission order is application order: operations submitted O1 before O2
// reach every integration in that order, and no two integrations ever run
// at the same time. Each hook runs inside a fault boundary. A hook that
// returns an error or panics is logged, recorded and optionally sent to a
// dead letter queue; the remaining integrations still receive the operation
// and the submitter never sees the failure.
//
// Basic usage:
//
//	d := dispatch.New(integrations, dispatch.Config{Logger: logger})
//	d.Submit(integration.Track{P: track})
//	...
//	d.Close(ctx)
//
// Failed operations can be replayed against the integration that failed:
//
//	dlq := dispatch.NewInMemoryDLQ(dispatch.DLQConfig{MaxRetries: 3})
//	d := dispatch.New(integrations, dispatch.Config{DLQ: dlq})
//	p := dispatch.NewProcessor(d, dispatch.ProcessorConfig{PollInterval: time.Minute})
//	p.Start(ctx)
package dispatch
