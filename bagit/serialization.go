package bagit

import (
	"regexp"
	"sync"
)

// serializationFormats maps serialization MIME types to patterns matching
// the file extensions that carry them. The built-in set covers the formats
// profiles name in practice; hosts may register more.
var (
	formatMu             sync.RWMutex
	serializationFormats = map[string]*regexp.Regexp{
		"application/tar":             regexp.MustCompile(`\.tar$`),
		"application/zip":             regexp.MustCompile(`\.zip$`),
		"application/gzip":            regexp.MustCompile(`\.gzip$|\.gz$`),
		"application/tar+gzip":        regexp.MustCompile(`\.tgz$|\.tar\.gz$`),
		"application/x-7z-compressed": regexp.MustCompile(`\.7z$`),
		"application/x-rar":           regexp.MustCompile(`\.rar$`),
	}
)

// RegisterSerializationFormat binds a MIME type to an extension pattern,
// replacing any existing binding.
func RegisterSerializationFormat(mimeType string, pattern *regexp.Regexp) {
	formatMu.Lock()
	serializationFormats[mimeType] = pattern
	formatMu.Unlock()
}

// SerializationMatches reports whether path's name matches the extension
// pattern bound to mimeType. Unknown MIME types match nothing.
func SerializationMatches(mimeType, path string) bool {
	formatMu.RLock()
	re := serializationFormats[mimeType]
	formatMu.RUnlock()
	return re != nil && re.MatchString(path)
}
