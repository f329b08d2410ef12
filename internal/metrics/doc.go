// Package metrics records pet activity for observability.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so nothing needs a nil check:
//
//	ctrl := lifecycle.New(deps) // deps.Recorder == nil -> NoopRecorder{}
//
// When the daemon is started with a metrics listen address it swaps in a
// PrometheusRecorder and serves HTTPHandler on /metrics.
package metrics
