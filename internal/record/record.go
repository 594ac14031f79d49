package record

// Record is the authoritative entity being edited: an identifier plus a
// field-name → value mapping. Unset fields may be absent from the map or
// present as the unset value; the two are equivalent.
type Record struct {
	ID     string
	Fields map[string]Value
}

// New returns an empty record with the given identifier.
func New(id string) Record {
	return Record{ID: id, Fields: make(map[string]Value)}
}

// Get returns the value of the named field, or the unset value.
func (r Record) Get(name string) Value {
	return r.Fields[name]
}

// Set returns nothing; it writes the value in place. Callers that hold a
// session snapshot must Clone first — snapshots are immutable by contract.
func (r Record) Set(name string, v Value) {
	r.Fields[name] = v
}

// Clone returns a deep copy. Used when a session captures its original
// snapshot so later store-side mutation cannot leak into the session.
func (r Record) Clone() Record {
	out := Record{ID: r.ID, Fields: make(map[string]Value, len(r.Fields))}
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	return out
}
