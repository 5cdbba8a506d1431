package core

import (
	"path/filepath"
	"strings"
)

const avatarSuffix = "_cartoon.png"

// SplitExt splits name into root and extension. The extension starts at the
// last dot; leading dots of the base name never start an extension, so
// ".profile" has no extension and "..png" has none either.
func SplitExt(name string) (string, string) {
	sep := strings.LastIndexAny(name, `/\`)
	dot := strings.LastIndex(name, ".")
	if dot <= sep {
		return name, ""
	}
	// Skip all leading dots of the base name
	for i := sep + 1; i < dot; i++ {
		if name[i] != '.' {
			return name[:dot], name[dot:]
		}
	}
	return name, ""
}

// AvatarFilename derives the avatar file name from the upload name
func AvatarFilename(name string) string {
	root, _ := SplitExt(name)
	return root + avatarSuffix
}

// SanitizeFilename reduces a client supplied name to a safe base name.
// It returns false when nothing usable is left.
func SanitizeFilename(name string) (string, bool) {
	name = strings.ReplaceAll(name, `\`, "/")
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == ".." || base == "" {
		return "", false
	}
	return base, true
}

// extensionOf returns the lower-case extension without the dot
func extensionOf(name string) string {
	_, ext := SplitExt(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
