// Package models defines the storefront configuration document and the
// normalization rules that guarantee every documented section is present.
package models

// Document is a configuration document or document fragment: a nested,
// string-keyed tree of scalars, lists, and sub-documents. It has no
// client-assigned identity; each tenant session works on a single document.
type Document map[string]any

// Weekdays enumerates the hour-table keys in display order.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DefaultDocument returns the documented default configuration. Every
// top-level section a consumer may read is present here, so a normalized
// document never has missing keys.
func DefaultDocument() Document {
	hours := Document{}
	for _, day := range Weekdays {
		hours[day] = Document{"open": "09:00", "close": "22:00", "closed": false}
	}
	return Document{
		"branding": Document{
			"restaurantName": "",
			"slogan":         "",
			"logo":           "",
			"favicon":        "",
			"menuImage":      "",
			"primaryColor":   "#1f2937",
			"accentColor":    "#f59e0b",
		},
		"systemSettings": Document{
			"landing": Document{
				"hero": Document{
					"enabled":  true,
					"title":    "",
					"subtitle": "",
					"image":    "",
				},
				"callUs": Document{
					"enabled": true,
					"phone":   "",
					"label":   "Call us",
				},
				"aboutUs": Document{
					"enabled": true,
					"title":   "About us",
					"body":    "",
				},
				"serviceCards": []any{},
				"instagram": Document{
					"enabled": false,
					"handle":  "",
					"posts":   []any{},
				},
				"faqsPreview": Document{
					"enabled": true,
					"limit":   float64(4),
				},
			},
		},
		"policies": Document{
			"privacy": "",
			"terms":   "",
			"refund":  "",
		},
		"faqs":           []any{},
		"hours":          hours,
		"services":       []any{},
		"paymentMethods": []any{},
		"integrations":   []any{},
	}
}

// Normalize deep-merges raw over the default document. Missing sections fall
// back entirely to defaults; lists in raw replace default lists wholesale.
// Normalize never mutates raw.
func Normalize(raw Document) Document {
	doc := DefaultDocument()
	Merge(doc, raw)
	return doc
}

// Merge deep-merges overlay into dst. Nested documents merge recursively;
// any other value, including lists, replaces the destination value.
func Merge(dst, overlay Document) {
	for key, val := range overlay {
		ov, ok := asDocument(val)
		if !ok {
			dst[key] = copyValue(val)
			continue
		}
		dv, ok := asDocument(dst[key])
		if !ok {
			dst[key] = ov.Clone()
			continue
		}
		Merge(dv, ov)
		dst[key] = dv
	}
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = copyValue(v)
	}
	return out
}

// Get resolves a dot-separated path ("systemSettings.landing.callUs").
// An empty path returns the document itself.
func (d Document) Get(path string) (any, bool) {
	if path == "" {
		return d, true
	}
	var cur any = d
	for _, part := range splitPath(path) {
		doc, ok := asDocument(cur)
		if !ok {
			return nil, false
		}
		cur, ok = doc[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set writes a value at a dot-separated path, creating intermediate
// documents as needed. An empty path is a no-op.
func (d Document) Set(path string, value any) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return
	}
	cur := d
	for _, part := range parts[:len(parts)-1] {
		next, ok := asDocument(cur[part])
		if !ok {
			next = Document{}
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

// CopyValue deep-copies an arbitrary document value (document, list, scalar).
func CopyValue(v any) any {
	return copyValue(v)
}

func copyValue(v any) any {
	switch val := v.(type) {
	case Document:
		return val.Clone()
	case map[string]any:
		return Document(val).Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}

// asDocument unifies Document literals with map[string]any produced by
// json.Unmarshal.
func asDocument(v any) (Document, bool) {
	switch val := v.(type) {
	case Document:
		return val, true
	case map[string]any:
		return Document(val), true
	default:
		return nil, false
	}
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	return append(parts, path[start:])
}
