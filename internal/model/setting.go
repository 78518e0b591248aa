package model

// Setting is the typed result of parsing a generated config file for a
// single managed value: either the file does not configure the value at all,
// or it configures it with a concrete string.
type Setting struct {
	configured bool
	value      string
}

// NotConfigured reports a value absent from the parsed file.
func NotConfigured() Setting {
	return Setting{}
}

// ConfiguredWith reports a value present in the parsed file.
func ConfiguredWith(value string) Setting {
	return Setting{configured: true, value: value}
}

// Configured reports whether the file carries the value.
func (s Setting) Configured() bool {
	return s.configured
}

// Value returns the configured value and whether one exists.
func (s Setting) Value() (string, bool) {
	return s.value, s.configured
}

// Equals reports whether the setting is configured with exactly v.
func (s Setting) Equals(v string) bool {
	return s.configured && s.value == v
}
