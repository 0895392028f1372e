package page

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"unicode"
	"unicode/utf8"
)

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Fprintf(format string, a ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, a...)
}

func (e *errWriter) Fprintln(a ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintln(e.w, a...)
}

const maxPreview = 32

// preview renders b as utf8 when valid, otherwise as ascii with '.' for
// non-printable bytes.
func preview(b []byte) string {
	if len(b) > maxPreview {
		b = b[:maxPreview]
	}
	var buf bytes.Buffer
	if utf8.Valid(b) {
		for _, r := range string(b) {
			if unicode.IsPrint(r) {
				buf.WriteRune(r)
			} else {
				buf.WriteByte('.')
			}
		}
		return buf.String()
	}
	for _, c := range b {
		if c < utf8.RuneSelf && unicode.IsPrint(rune(c)) {
			buf.WriteByte(c)
		} else {
			buf.WriteByte('.')
		}
	}
	return buf.String()
}

func hexPreview(b []byte) string {
	if len(b) > maxPreview {
		b = b[:maxPreview]
	}
	return hex.EncodeToString(b)
}

// Debug prints the header and a kind-specific body listing to w.
func (p *Page) Debug(w io.Writer) error {
	ew := &errWriter{w: w}

	ew.Fprintf("=== Page Debug ===\n")
	ew.Fprintf("pageID=%d kind=%s count=%d overflow=%d bufLen=%d\n",
		p.ID(), p.Flags(), p.Count(), p.Overflow(), len(p.Buf))

	switch p.Flags() {
	case MetaPageFlag:
		p.debugMeta(ew)
	case BranchPageFlag:
		p.debugBranch(ew)
	case LeafPageFlag:
		p.debugLeaf(ew)
	case FreelistPageFlag:
		p.debugFreelist(ew)
	default:
		ew.Fprintln("\n(unknown page kind, body not decoded)")
	}

	ew.Fprintln("=== End Page Debug ===")
	return ew.err
}

func (p *Page) debugMeta(ew *errWriter) {
	ew.Fprintln("\n-- Meta --")
	m, err := p.Meta()
	if err != nil {
		ew.Fprintf("<error: %v>\n", err)
		return
	}
	ew.Fprintf("magic=0x%08x version=%d pageSize=%d flags=0x%08x\n",
		m.Magic, m.Version, m.PageSize, m.Flags)
	ew.Fprintf("root=%d freelist=%d txid=%d checksum=0x%016x\n",
		m.Root, m.Freelist, m.TxID, m.Checksum)
	if sum := m.Sum64(); sum != m.Checksum {
		ew.Fprintf("CHECKSUM MISMATCH computed=0x%016x\n", sum)
	}
}

func (p *Page) debugBranch(ew *errWriter) {
	ew.Fprintln("\n-- Branch Elements --")
	elems, err := p.BranchElements()
	if err != nil {
		ew.Fprintf("<error: %v>\n", err)
		return
	}
	if len(elems) == 0 {
		ew.Fprintln("(none)")
	}
	for i, e := range elems {
		if ew.err != nil {
			break
		}
		key, err := p.BranchKey(e)
		if err != nil {
			ew.Fprintf("[%d] pos=%d ksize=%d child=%d <key: %v>\n", i, e.Pos, e.KeySize, e.PageID, err)
			continue
		}
		ew.Fprintf("[%d] pos=%d ksize=%d child=%d key(hex)=%s key=\"%s\"\n",
			i, e.Pos, e.KeySize, e.PageID, hexPreview(key), preview(key))
	}
}

func (p *Page) debugLeaf(ew *errWriter) {
	ew.Fprintln("\n-- Leaf Elements --")
	elems, err := p.LeafElements()
	if err != nil {
		ew.Fprintf("<error: %v>\n", err)
		return
	}
	if len(elems) == 0 {
		ew.Fprintln("(none)")
	}
	for i, e := range elems {
		if ew.err != nil {
			break
		}
		ew.Fprintf("[%d] flags=0x%x pos=%d ksize=%d vsize=%d", i, e.Flags, e.Pos, e.KeySize, e.ValueSize)
		if e.IsBucket() {
			ew.Fprintf(" bucketRoot=%d", e.PageID)
		}
		ew.Fprintln()

		key, err := p.LeafKey(e)
		if err != nil {
			ew.Fprintf("     <key: %v>\n", err)
			continue
		}
		val, err := p.LeafValue(e)
		if err != nil {
			ew.Fprintf("     key=\"%s\" <value: %v>\n", preview(key), err)
			continue
		}
		ew.Fprintf("     key=\"%s\" value(hex)=%s value=\"%s\"\n",
			preview(key), hexPreview(val), preview(val))
	}
}

func (p *Page) debugFreelist(ew *errWriter) {
	ew.Fprintln("\n-- Free Page IDs --")
	ids, err := p.FreelistIDs()
	if err != nil {
		ew.Fprintf("<error: %v>\n", err)
		return
	}
	if len(ids) == 0 {
		ew.Fprintln("(none)")
		return
	}
	ew.Fprintf("len=%d ids=%v\n", len(ids), ids)
}

func (p *Page) DebugString() string {
	var b bytes.Buffer
	if err := p.Debug(&b); err != nil {
		// surface the error in the output so callers see it
		_, _ = b.WriteString("\n<debug write error: " + err.Error() + ">\n")
	}
	return b.String()
}
