package fetcher

import "github.com/nagiek/rendr/model"

// NeedsFetch decides whether a cache candidate can answer s. It does, unless
// there is no candidate, a required key is missing, s forces a fetch,
// or its own NeedsFetch asks for one, checked in that order.
func NeedsFetch(candidate model.Resource, s model.Spec) bool {
	if model.IsNil(candidate) {
		return true
	}
	req := s.Requirements()
	if IsMissingKeys(model.Attributes(candidate), req.EnsureKeys) {
		return true
	}
	if req.ForceFetch {
		return true
	}
	return req.NeedsFetch != nil && req.NeedsFetch(candidate)
}

// IsMissingKeys reports whether any key is absent from attrs or nil.
func IsMissingKeys(attrs map[string]any, keys []string) bool {
	for _, k := range keys {
		if v, ok := attrs[k]; !ok || v == nil {
			return true
		}
	}
	return false
}
