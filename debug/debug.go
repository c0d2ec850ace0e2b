package debug

import (
	"fmt"
	"os"
	"strconv"
)

type debug struct {
	Changes  bool
	Parse    bool
	Registry bool
	Store    bool
}

var d *debug

func init() {
	d = &debug{}
	d.Changes = boolEnv("SDF_DEBUG_CHANGES")
	d.Parse = boolEnv("SDF_DEBUG_PARSE")
	d.Registry = boolEnv("SDF_DEBUG_REGISTRY")
	d.Store = boolEnv("SDF_DEBUG_STORE")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Changes() bool {
	return d.Changes
}
func Parse() bool {
	return d.Parse
}
func Registry() bool {
	return d.Registry
}
func Store() bool {
	return d.Store
}

// Logf writes a formatted debug line to stderr.
func Logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
	if len(format) == 0 || format[len(format)-1] != '\n' {
		os.Stderr.Write([]byte{'\n'})
	}
}
