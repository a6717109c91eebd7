package apperr

import (
	"github.com/rs/zerolog"
	"github.com/samber/oops"
)

// LogError logs err with its oops code and context when available.
func LogError(log zerolog.Logger, msg string, err error) {
	event := log.Error().Str("kind", string(KindOf(err)))
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := Code(err); code != "" {
			event = event.Str("code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			event = event.Fields(ctx)
		}
	}
	event.Err(err).Msg(msg)
}
