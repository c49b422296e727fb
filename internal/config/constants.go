package config

import "strings"

// Version is reported by -version.
const Version = "0.1.0"

const SourceFileExt = ".bf"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".bf", ".b"}

// BundleFileExt is the extension written by the -c flag
const BundleFileExt = ".bfc"

// DefaultTapeLength is the number of cells in a default execution context.
const DefaultTapeLength = 30000

// Execution modes
const (
	ModeInterpreted = "interpreted"
	ModeNative      = "native"
)

// End-of-stream policies for the Input instruction
const (
	EOFZero      = "zero"
	EOFMinusOne  = "minus-one"
	EOFUnchanged = "unchanged"
)

// Log levels accepted by logging.Init
var LogLevels = []string{"debug", "info", "warn", "error"}

const DefaultLogLevel = "warn"

// IsSourceFile checks if a path has a recognized source extension
func IsSourceFile(path string) bool {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// TrimSourceExt removes a recognized source extension from path.
func TrimSourceExt(path string) string {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return path
}
