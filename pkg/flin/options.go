package flin

import "time"

// Options are the per-call options sent with object handle operations
type Options map[string]interface{}

// Well-known option keys and values
const (
	OptionCache     = "cache"
	OptionReturnTop = "returnTop"
	NoCache         = "nocache"
)

// DefaultObjectOptions returns the options every handle call starts from
func DefaultObjectOptions() Options {
	return Options{
		OptionCache:     NoCache,
		OptionReturnTop: false,
	}
}

// MergeOptions overlays opts onto defaults from left to right. Later maps
// win on conflicting keys. Inputs are not modified.
func MergeOptions(defaults Options, opts ...Options) Options {
	merged := make(Options, len(defaults))
	for k, v := range defaults {
		merged[k] = v
	}
	for _, o := range opts {
		for k, v := range o {
			merged[k] = v
		}
	}
	return merged
}

// cacheTTL reads a numeric cache option as seconds. "nocache", a missing
// key and non-positive values disable local caching.
func (o Options) cacheTTL() time.Duration {
	var seconds float64
	switch v := o[OptionCache].(type) {
	case int:
		seconds = float64(v)
	case int64:
		seconds = float64(v)
	case float64:
		seconds = v
	case time.Duration:
		return max(v, 0)
	default:
		return 0
	}
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
