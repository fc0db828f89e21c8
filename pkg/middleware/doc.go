// Package middleware provides history.History decorators for production
// use.
//
// Each decorator wraps a backend and returns another backend, so they
// compose and can be handed to router.WithHistory or Router.Use:
//
//	h := history.History(history.NewMemory("/"))
//	h = middleware.Logging(h, logger)
//	h = middleware.Tracing(h, middleware.WithTracerName("my-app"))
//	h = middleware.Instrument(h, metrics)
//	r := router.New(router.WithHistory(h), router.WithObserver(metrics))
//
// # OpenTelemetry Tracing
//
// Tracing starts a span for every command reaching the backend and for
// every update it delivers. Since a router settles synchronously inside
// the backend's listener, the history.update span covers the whole
// propagation pass, including any redirects issued by subscribers.
//
// # Prometheus Metrics
//
// Metrics counts navigation decisions (as a router.Observer), backend calls
// and deliveries (through Instrument), and WebSocket sessions. Expose the
// registry it was created on:
//
//	reg := prometheus.NewRegistry()
//	metrics := middleware.NewMetrics(middleware.WithRegistry(reg))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # Logging
//
// Logging writes one slog debug record per call and per delivery.
package middleware
