package util

import "time"

// Timestamp returns a filesystem-safe timestamp for output directories.
func Timestamp() string {
	return time.Now().Format("2006-01-02_15-04-05")
}
