package markup

import "github.com/paulmach/osm"

// Kind identifies the markup element an entity was read from
type Kind string

const (
	KindNode     Kind = "node"
	KindWay      Kind = "way"
	KindRelation Kind = "relation"
)

// Ref is an ordered reference from a way (nd) or relation (member) to another entity
type Ref struct {
	ID   string
	Type string // Member type, only set for relation members
	Role string // Only set for relation members
}

// RawEntity is a parsed node, way or relation before any geometry is built
type RawEntity struct {
	ID   string
	Kind Kind
	// Tags holds the nested <tag k v/> children in document order
	Tags osm.Tags
	// Attrs holds the element's own attributes (lat, lon, version, ...)
	Attrs map[string]string
	Refs  []Ref
}

// TagMap returns the tags as a map, later duplicates overwrite earlier ones
func (e *RawEntity) TagMap() map[string]string {
	m := make(map[string]string, len(e.Tags))
	for _, t := range e.Tags {
		m[t.Key] = t.Value
	}
	return m
}

// Tag returns the last value recorded for key
func (e *RawEntity) Tag(key string) (string, bool) {
	for i := len(e.Tags) - 1; i >= 0; i-- {
		if e.Tags[i].Key == key {
			return e.Tags[i].Value, true
		}
	}
	return "", false
}

// Document holds every entity read from one markup file
type Document struct {
	Nodes     []RawEntity
	Ways      []RawEntity
	Relations []RawEntity

	// Skipped counts elements dropped for a missing id
	Skipped int
}

// Count returns the total number of entities
func (d *Document) Count() int {
	return len(d.Nodes) + len(d.Ways) + len(d.Relations)
}
