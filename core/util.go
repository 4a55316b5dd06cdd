package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Now returns the current UTC time at the millisecond precision of the document store.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Getwd returns the project root: the closest parent directory holding a go.mod file.
// go test runs inside the package directory, so the current directory cannot be trusted.
// Falls back to the current directory when no go.mod is found.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}

// Percentage returns round(part / total * 100) bounded to [0, 100]; 0 when total is not positive.
func Percentage(part, total int) int {
	if total <= 0 || part <= 0 {
		return 0
	}
	pct := (part*100*2 + total) / (total * 2) // round half up
	if pct > 100 {
		return 100
	}
	return pct
}

// StringsContain reports whether `s` is in `list`.
func StringsContain(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
