package bagit

import (
	"io"
	"strings"
)

// A Parser consumes a file's bytes as they stream past and produces a
// TagList when the stream ends. Both concrete parsers satisfy io.Writer so
// they can sit next to the digest writers in a single io.MultiWriter
// fan-out.
type Parser interface {
	io.Writer
	End() *TagList
}

// lineSplitter buffers stream writes and hands complete lines, with the
// trailing LF (and any CR before it) removed, to its line callback.
type lineSplitter struct {
	partial []byte
	line    func(string)
}

func (s *lineSplitter) Write(p []byte) (int, error) {
	n := len(p)
	for {
		i := -1
		for j, c := range p {
			if c == '\n' {
				i = j
				break
			}
		}
		if i < 0 {
			s.partial = append(s.partial, p...)
			return n, nil
		}
		s.partial = append(s.partial, p[:i]...)
		s.emit()
		p = p[i+1:]
	}
}

func (s *lineSplitter) emit() {
	line := string(s.partial)
	s.partial = s.partial[:0]
	line = strings.TrimSuffix(line, "\r")
	s.line(line)
}

// flush delivers any final line missing its terminator.
func (s *lineSplitter) flush() {
	if len(s.partial) > 0 {
		s.emit()
	}
}

// A TagParser parses RFC 8493 section 2.2.2 tag files: "Name: Value" lines
// with continuation lines marked by leading whitespace. Continuations are
// joined to the value with a single LF.
type TagParser struct {
	lineSplitter
	list   *TagList
	curKey string
	curVal strings.Builder
	open   bool
}

// NewTagParser returns a TagParser ready to stream into.
func NewTagParser() *TagParser {
	p := &TagParser{list: NewTagList()}
	p.lineSplitter.line = p.handleLine
	return p
}

func (p *TagParser) handleLine(line string) {
	if line == "" {
		p.closeTag()
		return
	}
	if line[0] == ' ' || line[0] == '\t' {
		if !p.open {
			return // continuation with no open tag; drop it
		}
		p.curVal.WriteByte('\n')
		p.curVal.WriteString(line[1:])
		return
	}
	p.closeTag()
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return // not a tag line; skip
	}
	p.curKey = strings.TrimSpace(line[:i])
	p.curVal.WriteString(strings.TrimSpace(line[i+1:]))
	p.open = true
}

func (p *TagParser) closeTag() {
	if p.open {
		p.list.Add(p.curKey, p.curVal.String())
		p.curVal.Reset()
		p.open = false
	}
}

// End flushes the final line and returns the parsed tags.
func (p *TagParser) End() *TagList {
	p.flush()
	p.closeTag()
	return p.list
}

// A ManifestParser parses "<digest> <relative path>" manifest lines. The
// path is everything after the first whitespace run, so paths containing
// spaces survive.
type ManifestParser struct {
	lineSplitter
	list *TagList
}

// NewManifestParser returns a ManifestParser ready to stream into.
func NewManifestParser() *ManifestParser {
	p := &ManifestParser{list: NewTagList()}
	p.lineSplitter.line = p.handleLine
	return p
}

func (p *ManifestParser) handleLine(line string) {
	line = strings.TrimRight(line, " \t")
	if line == "" {
		return
	}
	i := strings.IndexAny(line, " \t")
	if i <= 0 {
		return // no separator; skip
	}
	digest := strings.ToLower(line[:i])
	path := strings.TrimLeft(line[i:], " \t")
	if path == "" {
		return
	}
	// manifest paths use the same forward-slash form as the bag
	p.list.Add(path, digest)
}

// End flushes the final line and returns path-to-digest entries in file
// order.
func (p *ManifestParser) End() *TagList {
	p.flush()
	return p.list
}
