package policy

import (
	"path/filepath"
	"strings"
)

// extensionLanguages maps common file extensions to language names.
// This is the fallback used when the host provides no language; syntax-aware
// detection belongs to the editor host, not here.
var extensionLanguages = map[string]string{
	".py":   "python",
	".go":   "go",
	".js":   "javascript",
	".ts":   "typescript",
	".java": "java",
	".cpp":  "cpp",
	".c":    "c",
	".cs":   "csharp",
	".rb":   "ruby",
	".php":  "php",
	".html": "html",
	".css":  "css",
	".json": "json",
	".md":   "markdown",
	".odin": "odin",
}

// LanguageForPath returns the language for a file path based on its
// extension, or "" if unknown.
func LanguageForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return extensionLanguages[ext]
}
