package audio

import (
	"fmt"
	"mime"
	"path/filepath"
	"slices"
	"strings"

	"github.com/desertthunder/moodify/internal/shared"
)

// AllowedTypes lists the media types accepted for upload as-is.
var AllowedTypes = []string{
	"audio/wav",
	"audio/mp3",
	"audio/ogg",
	"audio/flac",
	"audio/m4a",
	"audio/webm",
}

var extensionTypes = map[string]string{
	".wav":  "audio/wav",
	".wave": "audio/wav",
	".mp3":  "audio/mp3",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/ogg",
	".flac": "audio/flac",
	".m4a":  "audio/m4a",
	".webm": "audio/webm",
}

// MediaTypeFor guesses the media type of name from its extension.
func MediaTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}

// Allowed reports whether declared, ignoring parameters and case, is in [AllowedTypes].
func Allowed(declared string) bool {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return false
	}
	return slices.Contains(AllowedTypes, mediaType)
}

// AcceptFile validates a user-supplied audio file for upload without transcoding.
func AcceptFile(name, declared string, data []byte) (*File, error) {
	if !Allowed(declared) {
		return nil, fmt.Errorf("%w: %q (allowed: %s)", shared.ErrUnsupportedFormat, declared, strings.Join(AllowedTypes, ", "))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", shared.ErrInvalidInput, name)
	}
	return NewFile(filepath.Base(name), declared, data), nil
}
