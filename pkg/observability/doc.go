/*
Package observability provides tools for monitoring the loom engine.

Metrics turns engine lifecycle hooks into Prometheus collectors (block and run counters,
duration histograms) and structured log lines; Combine chains several hook sets so metrics
can sit next to application hooks.
*/
package observability
