package feature

// ArrayAny replaces the value list of a key whose cardinality exceeds the export limit
const ArrayAny = "Array<any>"

// DefaultSchemaLimit is the default cardinality cutoff for schema export
const DefaultSchemaLimit = 20

// Schema records the raw attribute values observed per collection kind
type Schema struct {
	kinds map[Kind]*fieldSet
}

type fieldSet struct {
	keys   []string
	values map[string]*valueSet
}

type valueSet struct {
	order []string
	seen  map[string]struct{}
}

// NewSchema creates an empty registry
func NewSchema() *Schema {
	return &Schema{kinds: make(map[Kind]*fieldSet)}
}

// Record adds value to the set observed for key
func (s *Schema) Record(kind Kind, key, value string) {
	fs, ok := s.kinds[kind]
	if !ok {
		fs = &fieldSet{values: make(map[string]*valueSet)}
		s.kinds[kind] = fs
	}
	vs, ok := fs.values[key]
	if !ok {
		vs = &valueSet{seen: make(map[string]struct{})}
		fs.values[key] = vs
		fs.keys = append(fs.keys, key)
	}
	if _, dup := vs.seen[value]; dup {
		return
	}
	vs.seen[value] = struct{}{}
	vs.order = append(vs.order, value)
}

// Merge folds other into s; value order follows first observation
func (s *Schema) Merge(other *Schema) {
	if other == nil {
		return
	}
	for kind, fs := range other.kinds {
		for _, key := range fs.keys {
			for _, v := range fs.values[key].order {
				s.Record(kind, key, v)
			}
		}
	}
}

// Keys returns the recorded keys of kind in first-seen order
func (s *Schema) Keys(kind Kind) []string {
	fs, ok := s.kinds[kind]
	if !ok {
		return nil
	}
	out := make([]string, len(fs.keys))
	copy(out, fs.keys)
	return out
}

// Values returns the distinct values of key in first-seen order
func (s *Schema) Values(kind Kind, key string) []string {
	fs, ok := s.kinds[kind]
	if !ok {
		return nil
	}
	vs, ok := fs.values[key]
	if !ok {
		return nil
	}
	out := make([]string, len(vs.order))
	copy(out, vs.order)
	return out
}

// Export renders the registry with the cardinality cutoff applied.
// Every kind is present; a key maps to its value list or to ArrayAny.
func (s *Schema) Export(limit int) map[Kind]map[string]interface{} {
	out := make(map[Kind]map[string]interface{}, len(Kinds))
	for _, kind := range Kinds {
		fields := make(map[string]interface{})
		if fs, ok := s.kinds[kind]; ok {
			for _, key := range fs.keys {
				vs := fs.values[key]
				if len(vs.order) > limit {
					fields[key] = ArrayAny
					continue
				}
				values := make([]string, len(vs.order))
				copy(values, vs.order)
				fields[key] = values
			}
		}
		out[kind] = fields
	}
	return out
}
