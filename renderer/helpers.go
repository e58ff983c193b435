package renderer

import (
	"bytes"
	"cmp"
	"io"
	"slices"

	md "github.com/nao1215/markdown"
)

// ConditionalBlock let you fully write a block and decide at the end to print it or not.
// If the block function returns true, the content is printed to w, otherwise it is discarded.
func ConditionalBlock(w io.Writer, block func(io.Writer) bool) {
	bw := &bytes.Buffer{}
	if block(bw) {
		io.Copy(w, bw)
	}
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// writeTable appends t to doc with headers and cells written as given, long cells are never wrapped.
func writeTable(doc *md.Markdown, t md.TableSet) {
	doc.CustomTable(t, md.TableOptions{AutoWrapText: false, AutoFormatHeaders: false})
}
