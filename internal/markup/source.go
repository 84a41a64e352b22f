package markup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/edsrzf/mmap-go"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmxml"
)

// Source is a read-only memory mapping of an input file
type Source struct {
	file *os.File
	data mmap.MMap
	size int64
}

// Open maps path into memory
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat input file: %w", err)
	}

	// Zero-length files cannot be mapped
	if info.Size() == 0 {
		return &Source{file: f}, nil
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to mmap input file: %w", err)
	}

	return &Source{file: f, data: data, size: info.Size()}, nil
}

// Bytes returns the mapped contents. Invalid after Close.
func (s *Source) Bytes() []byte {
	return s.data
}

// Size returns the file size in bytes
func (s *Source) Size() int64 {
	return s.size
}

// Close unmaps and closes the file
func (s *Source) Close() error {
	if s.data != nil {
		if err := s.data.Unmap(); err != nil {
			s.file.Close()
			return err
		}
		s.data = nil
	}
	return s.file.Close()
}

// Reader selects how input markup is parsed
type Reader string

const (
	// ReaderSnippet scans elements leniently and skips malformed ones
	ReaderSnippet Reader = "snippet"
	// ReaderXML decodes strictly and fails on malformed input
	ReaderXML Reader = "xml"
)

// ParseReader validates a reader name
func ParseReader(s string) (Reader, error) {
	switch Reader(s) {
	case ReaderSnippet, "":
		return ReaderSnippet, nil
	case ReaderXML:
		return ReaderXML, nil
	default:
		return "", fmt.Errorf("unsupported reader: %s (supported: snippet, xml)", s)
	}
}

// ReadFile loads and parses the markup file at path
func ReadFile(ctx context.Context, path string, reader Reader) (*Document, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if reader == ReaderXML {
		return ReadXML(ctx, bytes.NewReader(src.Bytes()))
	}
	return ExtractBytes(src.Bytes()), nil
}

// ReadXML decodes well-formed OSM XML into a Document
func ReadXML(ctx context.Context, r io.Reader) (*Document, error) {
	scanner := osmxml.New(ctx, r)
	defer scanner.Close()

	doc := &Document{}
	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			// The decoder leaves absent coordinates at zero
			attrs := map[string]string{}
			if o.Lat != 0 || o.Lon != 0 {
				attrs["lat"] = strconv.FormatFloat(o.Lat, 'f', -1, 64)
				attrs["lon"] = strconv.FormatFloat(o.Lon, 'f', -1, 64)
			}
			doc.Nodes = append(doc.Nodes, RawEntity{
				ID:    strconv.FormatInt(int64(o.ID), 10),
				Kind:  KindNode,
				Tags:  o.Tags,
				Attrs: attrs,
			})
		case *osm.Way:
			refs := make([]Ref, 0, len(o.Nodes))
			for _, wn := range o.Nodes {
				refs = append(refs, Ref{ID: strconv.FormatInt(int64(wn.ID), 10)})
			}
			doc.Ways = append(doc.Ways, RawEntity{
				ID:    strconv.FormatInt(int64(o.ID), 10),
				Kind:  KindWay,
				Tags:  o.Tags,
				Attrs: map[string]string{},
				Refs:  refs,
			})
		case *osm.Relation:
			refs := make([]Ref, 0, len(o.Members))
			for _, m := range o.Members {
				refs = append(refs, Ref{
					ID:   strconv.FormatInt(m.Ref, 10),
					Type: string(m.Type),
					Role: m.Role,
				})
			}
			doc.Relations = append(doc.Relations, RawEntity{
				ID:    strconv.FormatInt(int64(o.ID), 10),
				Kind:  KindRelation,
				Tags:  o.Tags,
				Attrs: map[string]string{},
				Refs:  refs,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to decode OSM XML: %w", err)
	}

	return doc, nil
}
