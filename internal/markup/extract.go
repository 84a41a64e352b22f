package markup

import (
	"strings"
	"unsafe"

	"github.com/paulmach/osm"
)

// span locates one element inside the scanned text
type span struct {
	start       int // Index of '<'
	headEnd     int // Index just past the '>' of the opening tag
	end         int // Index just past the closing tag
	selfClosing bool
}

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

// Snippets returns the ordered, non-overlapping elements named tag in either
// paired (<tag ...>...</tag>) or self-closing (<tag .../>) form.
// An opening tag without a close before the next opening of the same tag is skipped.
func Snippets(text, tag string) []string {
	spans := scan(text, tag)
	snippets := make([]string, 0, len(spans))
	for _, s := range spans {
		snippets = append(snippets, text[s.start:s.end])
	}
	return snippets
}

// Attribute returns the first quoted value of name=... in snippet
func Attribute(snippet, name string) (string, bool) {
	from := 0
	for {
		i := strings.Index(snippet[from:], name)
		if i < 0 {
			return "", false
		}
		i += from
		from = i + len(name)

		if i > 0 && !isSpace(snippet[i-1]) {
			continue
		}
		rest := strings.TrimLeft(snippet[from:], " \t\r\n")
		if !strings.HasPrefix(rest, "=") {
			continue
		}
		rest = strings.TrimLeft(rest[1:], " \t\r\n")
		if rest == "" {
			return "", false
		}
		quote := rest[0]
		if quote != '"' && quote != '\'' {
			continue
		}
		end := strings.IndexByte(rest[1:], quote)
		if end < 0 {
			return "", false
		}
		return unescape(rest[1 : 1+end]), true
	}
}

// Extract reads every node, way and relation in text.
// Malformed elements are skipped; Extract never fails.
func Extract(text string) *Document {
	doc := &Document{}
	doc.Nodes = entities(text, KindNode, &doc.Skipped)
	doc.Ways = entities(text, KindWay, &doc.Skipped)
	doc.Relations = entities(text, KindRelation, &doc.Skipped)
	return doc
}

// ExtractBytes is Extract over a byte slice without copying it.
// Every retained string is cloned, so data may be released afterwards.
func ExtractBytes(data []byte) *Document {
	if len(data) == 0 {
		return &Document{}
	}
	return Extract(unsafe.String(&data[0], len(data)))
}

func entities(text string, kind Kind, skipped *int) []RawEntity {
	spans := scan(text, string(kind))
	out := make([]RawEntity, 0, len(spans))

	for _, s := range spans {
		attrs := attributes(text[s.start:s.headEnd], len(kind)+1)
		id := attrs["id"]
		if id == "" {
			*skipped++
			continue
		}

		e := RawEntity{ID: id, Kind: kind, Attrs: attrs}
		if !s.selfClosing {
			body := text[s.headEnd:s.end]
			e.Tags = tags(body)
			switch kind {
			case KindWay:
				e.Refs = nodeRefs(body)
			case KindRelation:
				e.Refs = members(body)
			}
		}
		out = append(out, e)
	}

	return out
}

func tags(body string) osm.Tags {
	snippets := Snippets(body, "tag")
	if len(snippets) == 0 {
		return nil
	}
	out := make(osm.Tags, 0, len(snippets))
	for _, sn := range snippets {
		k, ok := Attribute(sn, "k")
		if !ok {
			continue
		}
		v, _ := Attribute(sn, "v")
		out = append(out, osm.Tag{Key: strings.Clone(k), Value: strings.Clone(v)})
	}
	return out
}

// nodeRefs keeps nd elements without a ref as empty ids so the way fails to resolve
func nodeRefs(body string) []Ref {
	snippets := Snippets(body, "nd")
	refs := make([]Ref, 0, len(snippets))
	for _, sn := range snippets {
		ref, _ := Attribute(sn, "ref")
		refs = append(refs, Ref{ID: strings.Clone(ref)})
	}
	return refs
}

func members(body string) []Ref {
	snippets := Snippets(body, "member")
	refs := make([]Ref, 0, len(snippets))
	for _, sn := range snippets {
		ref, _ := Attribute(sn, "ref")
		typ, _ := Attribute(sn, "type")
		role, _ := Attribute(sn, "role")
		refs = append(refs, Ref{
			ID:   strings.Clone(ref),
			Type: strings.Clone(typ),
			Role: strings.Clone(role),
		})
	}
	return refs
}

// attributes parses the name="value" pairs of an opening tag, skipping the first skip bytes
func attributes(head string, skip int) map[string]string {
	attrs := make(map[string]string)
	i := skip
	for i < len(head) {
		for i < len(head) && isSpace(head[i]) {
			i++
		}
		nameStart := i
		for i < len(head) && head[i] != '=' && head[i] != '>' && head[i] != '/' && !isSpace(head[i]) {
			i++
		}
		name := head[nameStart:i]
		for i < len(head) && isSpace(head[i]) {
			i++
		}
		if name == "" || i >= len(head) || head[i] != '=' {
			if i < len(head) && (head[i] == '/' || head[i] == '>') {
				i++
			} else if name == "" {
				i++
			}
			continue
		}
		i++
		for i < len(head) && isSpace(head[i]) {
			i++
		}
		if i >= len(head) || (head[i] != '"' && head[i] != '\'') {
			continue
		}
		quote := head[i]
		end := strings.IndexByte(head[i+1:], quote)
		if end < 0 {
			break
		}
		if _, seen := attrs[name]; !seen {
			attrs[strings.Clone(name)] = strings.Clone(unescape(head[i+1 : i+1+end]))
		}
		i += end + 2
	}
	return attrs
}

func scan(text, tag string) []span {
	open := "<" + tag
	closing := "</" + tag + ">"

	var spans []span
	pos := 0
	for {
		start := nextOpen(text, open, pos)
		if start < 0 {
			break
		}
		gt := strings.IndexByte(text[start:], '>')
		if gt < 0 {
			break
		}
		if lt := strings.IndexByte(text[start+len(open):start+gt], '<'); lt >= 0 {
			// Unterminated opening tag, resume at the markup that interrupts it
			pos = start + len(open) + lt
			continue
		}
		headEnd := start + gt + 1

		if text[headEnd-2] == '/' {
			spans = append(spans, span{start: start, headEnd: headEnd, end: headEnd, selfClosing: true})
			pos = headEnd
			continue
		}

		c := strings.Index(text[headEnd:], closing)
		if c < 0 {
			pos = headEnd
			continue
		}
		if next := nextOpen(text, open, headEnd); next >= 0 && next < headEnd+c {
			// Unterminated element, resume at the next opening
			pos = next
			continue
		}

		end := headEnd + c + len(closing)
		spans = append(spans, span{start: start, headEnd: headEnd, end: end})
		pos = end
	}

	return spans
}

// nextOpen finds the next "<tag" that is not a prefix of a longer name
func nextOpen(text, open string, from int) int {
	for from < len(text) {
		i := strings.Index(text[from:], open)
		if i < 0 {
			return -1
		}
		i += from
		j := i + len(open)
		if j >= len(text) {
			return -1
		}
		if c := text[j]; isSpace(c) || c == '>' || c == '/' {
			return i
		}
		from = j
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func unescape(s string) string {
	if strings.IndexByte(s, '&') < 0 {
		return s
	}
	return entityReplacer.Replace(s)
}
