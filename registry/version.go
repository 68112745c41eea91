package registry

import "fmt"

// Version is a semantic version a service descriptor advertises.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// VersionRequest is what a dependent asks for: either an exact
// major.minor.patch or a minimum, meaning any version with the same major
// and a minor at or above the requested one.
type VersionRequest struct {
	Major, Minor, Patch int
	ExactPatch          bool
}

// Exact requests one specific version.
func Exact(major, minor, patch int) VersionRequest {
	return VersionRequest{Major: major, Minor: minor, Patch: patch, ExactPatch: true}
}

// Minimum requests any version with the given major and a minor >= minor.
func Minimum(major, minor int) VersionRequest {
	return VersionRequest{Major: major, Minor: minor}
}

// Matches reports whether v satisfies the request. The major must always
// match exactly.
func (r VersionRequest) Matches(v Version) bool {
	if v.Major != r.Major {
		return false
	}
	if r.ExactPatch {
		return v.Minor == r.Minor && v.Patch == r.Patch
	}
	return v.Minor >= r.Minor
}

func (r VersionRequest) String() string {
	if r.ExactPatch {
		return fmt.Sprintf("%d.%d.%d", r.Major, r.Minor, r.Patch)
	}
	return fmt.Sprintf(">=%d.%d", r.Major, r.Minor)
}
