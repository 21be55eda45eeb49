// Package observability wires OpenTelemetry tracing and metrics over OTLP
// HTTP.
//
//	obs := observability.NewComponent(cfg.Observability, "convoview", version.Version, "production", log)
//	registry.Register(obs)
//
//	ctx, op := observability.StartOperation(ctx, obs.Metrics(), "conversations", "get")
//	defer func() { op.End(ctx, err) }()
//
// When export is disabled the global no-op providers stay in place, so spans
// and instruments cost nothing.
package observability
