// Package input translates host keyboard events into the module's key
// and scancode enumeration.
//
// Translation is total: identifiers missing from the tables map to
// KeyUnknown and ScancodeUnknown. Key-down events for text-producing
// keys also deliver the key's UTF-8 text, truncated to fit the module's
// fixed text buffer. Delivery is gated on focus, and losing focus
// releases every held key.
package input
