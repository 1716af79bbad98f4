// Package observable wraps command and query handlers with metrics, tracing and logging,
// so the handlers themselves only contain the Query → Decide → Append workflow.
//
// Wrappers are applied at wiring time:
//
//	coreHandler := borrowtitle.NewCommandHandler(eventStore, titles, clock, loanPolicy)
//
//	handler, err := observable.NewCommandWrapper(
//		coreHandler,
//		observable.WithMetrics(metricsCollector),
//		observable.WithTracing(tracingCollector),
//		observable.WithContextualLogging(contextualLogger),
//	)
//
// Every option is optional. Tests of business logic use the core handlers directly.
package observable
