package integration

import "github.com/randalmurphal/pulse/pkg/pulse/payload"

// Enabled reports whether switches allow delivery to key. An explicit entry
// for key wins; otherwise the payload.AllIntegrations entry sets the default;
// with neither the integration is enabled.
func Enabled(switches map[string]bool, key string) bool {
	if v, ok := switches[key]; ok {
		return v
	}
	if v, ok := switches[payload.AllIntegrations]; ok {
		return v
	}
	return true
}
