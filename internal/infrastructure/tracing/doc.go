/*
Package tracing tags API requests with a trace id.

Every request gets the id from its X-Trace-ID header, or a fresh request id
when the header is absent. The id is stored in the request context, echoed
in the response header and attached to the span logged when the request
completes.

# Usage

	tracer := tracing.New(logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	// later, inside a handler
	traceID := tracing.GetTraceID(c.Request.Context())
*/
package tracing
