package logging

import (
	"context"
	"errors"
	"log"
)

// Detailer is implemented by errors that carry extra diagnostic fields,
// such as CRM status codes and correlation IDs.
type Detailer interface {
	LogDetail() string
}

// Error logs err under a scope tag ("HubSpot", "Mappings", ...) together
// with the request ID from ctx and any detail the error chain exposes.
func Error(ctx context.Context, scope string, err error, message string) {
	log.Print(format(ctx, "❌", scope, err, message))
}

// Warn is Error for failures the caller recovers from.
func Warn(ctx context.Context, scope string, err error, message string) {
	log.Print(format(ctx, "⚠️ ", scope, err, message))
}

func format(ctx context.Context, glyph, scope string, err error, message string) string {
	line := glyph + " [" + scope + "]"
	if id := GetRequestID(ctx); id != "" {
		line += " req=" + id
	}
	line += " " + message
	if err != nil {
		line += ": " + err.Error()
		var d Detailer
		if errors.As(err, &d) {
			if detail := d.LogDetail(); detail != "" {
				line += " (" + detail + ")"
			}
		}
	}
	return line
}
