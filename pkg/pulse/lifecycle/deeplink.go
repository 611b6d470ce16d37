package lifecycle

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/randalmurphal/pulse/pkg/pulse/host"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

func (o *Observer) trackDeepLink(s host.Screen) {
	raw := s.LaunchURI()
	if raw == "" {
		return
	}
	props, err := DeepLinkProperties(raw)
	if err != nil {
		o.logger.Warn("deep link not tracked",
			slog.String("screen", s.ID()),
			slog.String("uri", raw),
			slog.String("error", err.Error()),
		)
		return
	}
	o.emit(EventDeepLinkOpened, props, slog.String(payload.PropertyURL, raw))
}

// DeepLinkProperties returns the properties of a "Deep Link Opened" event
// for uri: every query parameter with a non-blank value, trimmed, in query
// order, followed by url. Only the first value of a repeated parameter is
// considered, so a blank first value drops the parameter.
func DeepLinkProperties(uri string) (*payload.Properties, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}

	props := payload.NewValueMap()
	seen := make(map[string]bool)
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil || key == "" || seen[key] {
			continue
		}
		seen[key] = true
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			continue
		}
		if value = strings.TrimSpace(value); value == "" {
			continue
		}
		props.Put(key, value)
	}
	props.Put(payload.PropertyURL, uri)
	return props, nil
}
