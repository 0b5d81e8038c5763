package version

const (
	Major = 1
	Minor = 0
	Patch = 0
)
