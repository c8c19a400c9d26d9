package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"
)

// OTelHandler writes every record to the wrapped handler and emits it to
// the global OpenTelemetry logger provider.
type OTelHandler struct {
	handler slog.Handler
	logger  log.Logger
	attrs   []log.KeyValue
}

func NewOTelHandler(handler slog.Handler, scope string) *OTelHandler {
	return &OTelHandler{
		handler: handler,
		logger:  global.GetLoggerProvider().Logger(scope),
	}
}

func (h *OTelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *OTelHandler) Handle(ctx context.Context, record slog.Record) error {
	if err := h.handler.Handle(ctx, record); err != nil {
		return err
	}

	var r log.Record
	r.SetTimestamp(record.Time)
	r.SetBody(log.StringValue(record.Message))
	r.SetSeverity(severity(record.Level))
	r.SetSeverityText(record.Level.String())
	r.AddAttributes(h.attrs...)

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		r.AddAttributes(
			log.String("trace_id", sc.TraceID().String()),
			log.String("span_id", sc.SpanID().String()),
		)
	}

	record.Attrs(func(attr slog.Attr) bool {
		r.AddAttributes(convertAttr(attr))
		return true
	})

	h.logger.Emit(ctx, r)
	return nil
}

func (h *OTelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]log.KeyValue, 0, len(h.attrs)+len(attrs))
	next = append(next, h.attrs...)
	for _, a := range attrs {
		next = append(next, convertAttr(a))
	}
	return &OTelHandler{handler: h.handler.WithAttrs(attrs), logger: h.logger, attrs: next}
}

func (h *OTelHandler) WithGroup(name string) slog.Handler {
	return &OTelHandler{handler: h.handler.WithGroup(name), logger: h.logger, attrs: h.attrs}
}

func severity(level slog.Level) log.Severity {
	switch {
	case level >= slog.LevelError:
		return log.SeverityError
	case level >= slog.LevelWarn:
		return log.SeverityWarn
	case level >= slog.LevelInfo:
		return log.SeverityInfo
	default:
		return log.SeverityDebug
	}
}

func convertAttr(attr slog.Attr) log.KeyValue {
	v := attr.Value.Resolve()
	switch v.Kind() {
	case slog.KindInt64:
		return log.Int64(attr.Key, v.Int64())
	case slog.KindUint64:
		return log.Int64(attr.Key, int64(v.Uint64()))
	case slog.KindBool:
		return log.Bool(attr.Key, v.Bool())
	case slog.KindFloat64:
		return log.Float64(attr.Key, v.Float64())
	default:
		return log.String(attr.Key, v.String())
	}
}
