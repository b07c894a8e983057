/*
Package monitoring provides Prometheus metrics for the provider host.

# Overview

Metrics cover the execution API (latency, sizes, status), provider
sessions (active, passes by outcome, results by kind, capability calls),
outbound exchanges made by providers and remote dispatch connections.

Metrics implements api.Recorder and requests.Observer, so one value can be
handed to the façade and the HTTP executor of every session.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(monitoring.Handler(reg)))
*/
package monitoring
