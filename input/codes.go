package input

// Lookup resolves a module enumeration constant by export name, e.g.
// "SCANCODE_A". It reports false when the module does not export it.
type Lookup func(name string) (uint32, bool)

// ModuleCodes translates Key and Scancode values into the module's own
// enumeration. A nil or empty table is the identity.
type ModuleCodes struct {
	keys      map[Key]uint32
	scancodes map[Scancode]uint32
}

// LoadModuleCodes probes every known KEYCODE_* and SCANCODE_* name
// through lookup.
func LoadModuleCodes(lookup Lookup) *ModuleCodes {
	c := &ModuleCodes{
		keys:      make(map[Key]uint32),
		scancodes: make(map[Scancode]uint32),
	}
	if lookup == nil {
		return c
	}
	for s, name := range scancodeNames {
		if v, ok := lookup("SCANCODE_" + name); ok {
			c.scancodes[s] = v
		}
	}
	for _, k := range moduleKeys() {
		if v, ok := lookup("KEYCODE_" + k.String()); ok {
			c.keys[k] = v
		}
	}
	return c
}

// Len returns the number of overrides loaded.
func (c *ModuleCodes) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys) + len(c.scancodes)
}

// Key returns the module value for k. When the module exports a key
// table but not this entry, its KEYCODE_UNKNOWN value is used.
func (c *ModuleCodes) Key(k Key) uint32 {
	if c == nil || len(c.keys) == 0 {
		return uint32(k)
	}
	if v, ok := c.keys[k]; ok {
		return v
	}
	return c.keys[KeyUnknown]
}

// Scancode returns the module value for s, with the same fallback rule
// as Key.
func (c *ModuleCodes) Scancode(s Scancode) uint32 {
	if c == nil || len(c.scancodes) == 0 {
		return uint32(s)
	}
	if v, ok := c.scancodes[s]; ok {
		return v
	}
	return c.scancodes[ScancodeUnknown]
}
