package resources

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/rs/zerolog"
	otelog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

var severities = map[zerolog.Level]struct {
	severity otelog.Severity
	text     string
}{
	zerolog.TraceLevel: {otelog.SeverityTrace, "TRACE"},
	zerolog.DebugLevel: {otelog.SeverityDebug, "DEBUG"},
	zerolog.InfoLevel:  {otelog.SeverityInfo, "INFO"},
	zerolog.WarnLevel:  {otelog.SeverityWarn, "WARN"},
	zerolog.ErrorLevel: {otelog.SeverityError, "ERROR"},
	zerolog.FatalLevel: {otelog.SeverityFatal, "FATAL"},
	zerolog.PanicLevel: {otelog.SeverityFatal4, "FATAL"},
}

// OtelLogHook copies every zerolog event into an OpenTelemetry log record.
// Stdout output is unaffected.
type OtelLogHook struct {
	logger otelog.Logger
}

func NewOtelLogHook(serviceName string, serviceVersion string) *OtelLogHook {
	return &OtelLogHook{
		logger: global.GetLoggerProvider().Logger(serviceName, otelog.WithInstrumentationVersion(serviceVersion)),
	}
}

func (h *OtelLogHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	fields, ok := eventFields(e)
	if !ok {
		return
	}

	sev, found := severities[level]
	if !found {
		sev = severities[zerolog.InfoLevel]
	}

	var rec otelog.Record

	rec.SetTimestamp(fieldTime(fields))
	rec.SetObservedTimestamp(time.Now())
	rec.SetSeverity(sev.severity)
	rec.SetSeverityText(sev.text)
	rec.SetBody(otelog.StringValue(msg))

	for key, value := range fields {
		rec.AddAttributes(toKeyValue(key, value))
	}

	h.logger.Emit(e.GetCtx(), rec)
}

// eventFields decodes the fields already written into the event. zerolog
// keeps them in an unexported, still unterminated JSON buffer.
func eventFields(e *zerolog.Event) (map[string]any, bool) {
	if e == nil {
		return nil, false
	}

	buf := reflect.ValueOf(e).Elem().FieldByName("buf")
	if !buf.IsValid() || buf.Kind() != reflect.Slice || buf.Type().Elem().Kind() != reflect.Uint8 {
		return nil, false
	}

	data := append([]byte(nil), buf.Bytes()...)
	if len(data) == 0 {
		return nil, false
	}

	if data[len(data)-1] != '}' {
		data = append(data, '}')
	}

	var fields map[string]any

	err := json.Unmarshal(data, &fields)
	if err != nil {
		return nil, false
	}

	return fields, true
}

func fieldTime(fields map[string]any) time.Time {
	raw, ok := fields[zerolog.TimestampFieldName].(string)
	if !ok {
		return time.Now()
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		ts, err := time.Parse(layout, raw)
		if err == nil {
			return ts
		}
	}

	return time.Now()
}

func toKeyValue(key string, value any) otelog.KeyValue {
	switch v := value.(type) {
	case string:
		return otelog.String(key, v)
	case bool:
		return otelog.Bool(key, v)
	case float64:
		if v == float64(int64(v)) {
			return otelog.Int64(key, int64(v))
		}

		return otelog.Float64(key, v)
	default:
		return otelog.String(key, fmt.Sprintf("%v", v))
	}
}
