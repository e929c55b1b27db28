package diagnostic

import "sort"

// LineIndex converts byte offsets to line and column numbers. Line start
// offsets are computed once so lookups are a binary search.
type LineIndex struct {
	source     string
	lineStarts []int // byte offset of each line start
}

// NewLineIndex creates a LineIndex for the given source.
func NewLineIndex(source string) *LineIndex {
	idx := &LineIndex{
		source:     source,
		lineStarts: []int{0},
	}
	for i := 0; i < len(source); i++ {
		switch source[i] {
		case '\n':
			idx.lineStarts = append(idx.lineStarts, i+1)
		case '\r':
			if i+1 < len(source) && source[i+1] == '\n' {
				i++ // CRLF
			}
			idx.lineStarts = append(idx.lineStarts, i+1)
		}
	}
	return idx
}

// LineCount returns the number of lines in the source.
func (idx *LineIndex) LineCount() int {
	return len(idx.lineStarts)
}

// ByteOffsetToLineColumn converts a byte offset to 0-indexed line and
// column. The column is in bytes.
func (idx *LineIndex) ByteOffsetToLineColumn(offset int) (line, col int) {
	if offset < 0 {
		return 0, 0
	}
	if offset > len(idx.source) {
		offset = len(idx.source)
	}
	line = sort.Search(len(idx.lineStarts), func(i int) bool {
		return idx.lineStarts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	return line, offset - idx.lineStarts[line]
}

// Line returns the text of the 1-based line, without its terminator.
func (idx *LineIndex) Line(n int) string {
	if n < 1 || n > len(idx.lineStarts) {
		return ""
	}
	start := idx.lineStarts[n-1]
	end := len(idx.source)
	if n < len(idx.lineStarts) {
		end = idx.lineStarts[n]
	}
	for end > start && (idx.source[end-1] == '\n' || idx.source[end-1] == '\r') {
		end--
	}
	return idx.source[start:end]
}
