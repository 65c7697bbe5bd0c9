package audio

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// partSuffixRe matches the tag PartPath appends to a segment's base name.
var partSuffixRe = regexp.MustCompile(`_part[1-9][0-9]*$`)

// PartPath returns the path of the index-th segment (1-based) of wavPath.
// Segments live next to the source: /dir/name.wav -> /dir/name_part3.wav.
func PartPath(wavPath string, index int) string {
	ext := filepath.Ext(wavPath)
	base := strings.TrimSuffix(wavPath, ext)
	return fmt.Sprintf("%s_part%d%s", base, index, ext)
}

// IsSegmentPath reports whether path carries the segment tag written by
// PartPath. Only such files are removed after transcription.
func IsSegmentPath(path string) bool {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return partSuffixRe.MatchString(name)
}
