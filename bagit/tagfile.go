package bagit

import (
	"bytes"
	"sort"
	"strings"
)

// FormatTags renders a tag list in the form written into bags: one
// "Name: Value" line per pair, LF terminated, sorted by name so repeated
// baggings produce identical bytes. Values containing newlines are folded
// onto continuation lines with a single leading space.
func FormatTags(tags *TagList) []byte {
	pairs := make([]Pair, len(tags.Pairs()))
	copy(pairs, tags.Pairs())
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Key < pairs[j].Key
	})

	var buf bytes.Buffer
	for _, p := range pairs {
		buf.WriteString(p.Key)
		buf.WriteString(": ")
		lines := strings.Split(p.Value, "\n")
		buf.WriteString(lines[0])
		buf.WriteByte('\n')
		for _, cont := range lines[1:] {
			buf.WriteByte(' ')
			buf.WriteString(cont)
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}
