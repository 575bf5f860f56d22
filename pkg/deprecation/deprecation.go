package deprecation

var (
	// deprecatedKeys maps each deprecated config key to the key replacing it
	deprecatedKeys = map[string]string{
		"host": "endpoint",
		"port": "endpoint",
	}
)

// Deprecated returns true if the key is deprecated
func Deprecated(k string) bool {
	_, ok := deprecatedKeys[k]
	return ok
}

// Replacement returns the key that replaces a deprecated key
func Replacement(k string) (string, bool) {
	r, ok := deprecatedKeys[k]
	return r, ok
}
