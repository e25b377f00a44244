package incident

// Document is one schema-free source document. Nested mappings are Documents too.
type Document map[string]any

// Get returns the raw value stored under key and whether the key exists
func (d Document) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d[key]
	return v, ok
}

// Value returns the value under key, or nil when the key is absent
func (d Document) Value(key string) any {
	v, _ := d.Get(key)
	return v
}

// Map returns the nested mapping under key. ok is false when the key is absent
// or holds anything other than a mapping.
func (d Document) Map(key string) (Document, bool) {
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	switch m := v.(type) {
	case Document:
		return m, true
	case map[string]any:
		return Document(m), true
	default:
		return nil, false
	}
}

// FirstNonEmpty returns the first value among keys that is present, non-nil and
// not the empty string. It returns nil when none qualifies.
func (d Document) FirstNonEmpty(keys ...string) any {
	for _, key := range keys {
		v, ok := d.Get(key)
		if ok && !isEmpty(v) {
			return v
		}
	}
	return nil
}

func isEmpty(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return s == ""
	default:
		return false
	}
}
