package filesync

import "runtime"

// Set holds top-level entry names compared exactly, without glob expansion.
type Set map[string]struct{}

// NewSet builds a set from names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Contains reports whether name is in the set.
func (s Set) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Union returns a new set with the names of both sets.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for n := range s {
		out[n] = struct{}{}
	}
	for n := range other {
		out[n] = struct{}{}
	}
	return out
}

// user data and the running executables, preserved across updates
var commonExcluded = NewSet("config.prod.yaml", "config.yaml", "examples", "logs", "matrices", "tmp")

// DefaultExcluded returns the exclusion set for goos.
func DefaultExcluded(goos string) Set {
	if goos == "windows" {
		return commonExcluded.Union(NewSet("AntaresWebWorker.exe", "AntaresWebInstaller.exe"))
	}
	return commonExcluded.Union(NewSet("AntaresWebWorker", "AntaresWebInstaller"))
}

// PlatformExcluded returns the exclusion set of the running platform.
func PlatformExcluded() Set {
	return DefaultExcluded(runtime.GOOS)
}
