// Package telemetry provides Prometheus metrics and OpenTelemetry tracing for
// the patch engine.
//
// Metrics are created per engine instance, registered on a private registry
// unless WithRegistry is given:
//
//	m := telemetry.NewMetrics(telemetry.WithNamespace("myapp"))
//	p := patch.New(root, doc, manager, patch.WithMetrics(m))
//	http.Handle("/metrics", promhttp.HandlerFor(m.Gatherer(), promhttp.HandlerOpts{}))
//
// Tracing uses the global OpenTelemetry tracer provider.
package telemetry
