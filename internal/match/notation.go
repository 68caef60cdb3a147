package match

import (
	"strconv"
	"strings"

	"github.com/variantkb/kbmatch/internal/kb"
)

// Canonical renders a variant profile to a deterministic string used for
// strict equality comparison. References are never part of the rendering and
// the reference sequence is excluded; untemplated sequence is lower-cased so
// notation case never distinguishes two variants.
func Canonical(v *kb.VariantProfile) string {
	var b strings.Builder

	if prefix := v.Prefix(); prefix != "" {
		b.WriteString(prefix)
		b.WriteByte('.')
	}
	writeBreak(&b, v.Break1Start, v.Break1End)
	if v.Break2Start != nil {
		b.WriteByte('_')
		writeBreak(&b, v.Break2Start, v.Break2End)
	}

	b.WriteByte(':')
	b.WriteString(strings.ToLower(v.Type))

	if v.UntemplatedSeq != nil {
		b.WriteByte(':')
		b.WriteString(strings.ToLower(*v.UntemplatedSeq))
	}
	if v.UntemplatedSeqSize != nil {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(*v.UntemplatedSeqSize))
	}
	return b.String()
}

func writeBreak(b *strings.Builder, start, end *kb.Position) {
	b.WriteString(start.String())
	if end != nil {
		b.WriteByte('(')
		b.WriteString(end.String())
		b.WriteByte(')')
	}
}
