package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// MaskValue replaces anything that looks like a credential.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose values are never logged.
var sensitiveKeys = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"password":      true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"session":       true,
	"credentials":   true,
}

// sensitiveParams are query parameter names whose values are masked inside
// URL-shaped strings. Matching is on the lower-cased name.
var sensitiveParams = []string{
	"token", "key", "secret", "password", "passwd", "session", "sid",
	"auth", "signature", "sig", "code",
}

// bearerPattern matches a bare Authorization header value.
var bearerPattern = regexp.MustCompile(`(?i)^(bearer|basic)\s+\S+$`)

// SecureHandler wraps an slog.Handler and scrubs credentials from every
// attribute before the record reaches it.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler wraps slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle scrubs the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	scrubbed := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		scrubbed.AddAttrs(scrubAttr(a))
		return true
	})
	return h.handler.Handle(ctx, scrubbed)
}

// WithAttrs scrubs attrs once, up front.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	scrubbed := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		scrubbed[i] = scrubAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(scrubbed)}
}

// WithGroup delegates to the wrapped handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func scrubAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		scrubbed := make([]slog.Attr, len(group))
		for i, ga := range group {
			scrubbed[i] = scrubAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(scrubbed...)}
	case slog.KindString:
		if sensitiveKeys[strings.ToLower(a.Key)] {
			return slog.String(a.Key, MaskValue)
		}
		return slog.String(a.Key, ScrubString(a.Value.String()))
	case slog.KindAny:
		if ss, ok := a.Value.Any().([]string); ok {
			scrubbed := make([]string, len(ss))
			for i, s := range ss {
				scrubbed[i] = ScrubString(s)
			}
			return slog.Any(a.Key, scrubbed)
		}
	}

	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, MaskValue)
	}
	return a
}

// ScrubString masks credentials in s. URLs keep their shape: only the
// userinfo password and the values of credential-like query parameters are
// replaced. Bearer and basic authorization values are replaced whole.
func ScrubString(s string) string {
	if bearerPattern.MatchString(s) {
		return MaskValue
	}
	if !strings.Contains(s, "://") {
		return s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return s
	}

	changed := false
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), MaskValue)
			changed = true
		}
	}

	if u.RawQuery != "" {
		q := u.Query()
		for name := range q {
			if isSensitiveParam(name) {
				q[name] = []string{MaskValue}
				changed = true
			}
		}
		if changed {
			u.RawQuery = q.Encode()
		}
	}

	if !changed {
		return s
	}
	// url.String escapes the mask; keep it readable.
	out := u.String()
	out = strings.ReplaceAll(out, url.QueryEscape(MaskValue), MaskValue)
	out = strings.ReplaceAll(out, url.PathEscape(MaskValue), MaskValue)
	return out
}

func isSensitiveParam(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range sensitiveParams {
		if lower == p || strings.HasSuffix(lower, "_"+p) || strings.HasSuffix(lower, "-"+p) {
			return true
		}
	}
	return false
}

func levelFor(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewSecureLogger returns a text logger at Debug level when verbose and Warn
// level otherwise.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelFor(verbose)}
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, opts)))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelFor(verbose)}
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, opts)))
}
