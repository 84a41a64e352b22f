package style

import (
	"github.com/wegman-software/lanelet2tiles/internal/feature"
)

// Filter checks feature properties against one layer's rules
type Filter struct {
	cfg  *FilterConfig
	keep map[string]struct{}
}

// NewFilter creates a filter from configuration
func NewFilter(cfg *FilterConfig) *Filter {
	if cfg == nil {
		cfg = &FilterConfig{}
	}
	f := &Filter{cfg: cfg}
	if len(cfg.Properties) > 0 {
		f.keep = map[string]struct{}{"id": {}}
		for _, k := range cfg.Properties {
			f.keep[k] = struct{}{}
		}
	}
	return f
}

// Match checks if the given tags match the filter rules
func (f *Filter) Match(tags map[string]string) bool {
	if len(f.cfg.RequireAny) > 0 {
		found := false
		for _, key := range f.cfg.RequireAny {
			if _, ok := tags[key]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(f.cfg.Include) > 0 {
		matched := false
		for key, values := range f.cfg.Include {
			if v, ok := tags[key]; ok && matchesAny(v, values) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for key, values := range f.cfg.Exclude {
		if v, ok := tags[key]; ok && matchesAny(v, values) {
			return false
		}
	}

	return true
}

// matchesAny reports whether v is listed; an empty list or "*" matches any value
func matchesAny(v string, values []string) bool {
	if len(values) == 0 {
		return true
	}
	for _, want := range values {
		if want == v || want == "*" {
			return true
		}
	}
	return false
}

// HasFilter returns true if any rule is configured
func (f *Filter) HasFilter() bool {
	return len(f.cfg.Include) > 0 || len(f.cfg.Exclude) > 0 ||
		len(f.cfg.RequireAny) > 0 || len(f.keep) > 0
}

// Apply returns a new collection with non-matching features removed and
// properties trimmed to the configured keys. The input is not modified.
func (f *Filter) Apply(c *feature.Collection) *feature.Collection {
	if !f.HasFilter() {
		return c
	}
	return c.Filter(func(ft *feature.Feature) (*feature.Feature, bool) {
		if !f.Match(ft.Properties.StringMap()) {
			return nil, false
		}
		if f.keep == nil {
			return ft, true
		}
		props := feature.NewProperties(len(f.keep))
		ft.Properties.Each(func(k string, v feature.Value) {
			if _, ok := f.keep[k]; ok {
				props.Set(k, v)
			}
		})
		return &feature.Feature{ID: ft.ID, Geometry: ft.Geometry, Properties: props}, true
	})
}
