package loader

import "os"

// Environ abstracts environment variable lookups so loading and policy checks
// can be tested against in-memory values instead of mutating the process
// environment.
type Environ interface {
	// Lookup returns the value of the variable and whether it is set
	Lookup(key string) (string, bool)
}

// OSEnviron reads the real process environment
type OSEnviron struct{}

// Lookup implements Environ
func (OSEnviron) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapEnviron is an in-memory Environ backed by a map
type MapEnviron map[string]string

// Lookup implements Environ
func (m MapEnviron) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}
