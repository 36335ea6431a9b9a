// Copyright 2025 floss-core Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package floss

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/encoding/unicode"
)

const rdataSectionName = "rdata"

// BlobEngine is the read-only-section string extractor (component D). It
// is pure over its inputs: given the same PE handle, scanner, and
// min-length it always returns the same strings.
type BlobEngine struct {
	Scanner StringScanner
	Logger  *slog.Logger
}

// NewBlobEngine constructs a BlobEngine. A nil logger falls back to
// slog.Default(), and a nil scanner falls back to the package's built-in
// scanner.
func NewBlobEngine(scanner StringScanner, logger *slog.Logger) *BlobEngine {
	if scanner == nil {
		scanner = NewDefaultScanner()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BlobEngine{Scanner: scanner, Logger: logger}
}

// Extract runs the full blob-string pipeline (§4.4) and returns the
// resulting StaticStrings. Every recoverable failure (no rdata, unsupported
// machine) is logged and yields an empty result rather than an error.
func (b *BlobEngine) Extract(pe PEFile, minLength int) []StaticString {
	rdata, ok := pe.Section(rdataSectionName)
	if !ok {
		b.Logger.Warn("blob engine: no rdata section")
		return nil
	}
	if pe.Machine().PointerSize() == 0 {
		b.Logger.Warn("blob engine: unsupported machine type", "machine", pe.Machine())
		return nil
	}

	scanned := b.Scanner.Scan(rdata.RawBytes, minLength)
	fixed := b.fixWideStrings(scanned, minLength, rdata.RawBytes)
	strs := b.projectUTF8(fixed, rdata, minLength)

	vas := b.collectXrefVAs(pe, rdata)
	strs = splitAtXrefs(strs, vas, rdata, pe.ImageBase(), minLength)

	return strs
}

// fixWideStrings implements §4.4 step 3: a WIDE_STRING result whose
// UTF-16LE re-encoding starts with a zero byte is strong evidence that the
// original scanner misparsed a UTF-8 string; re-scan from one byte in and
// hold the corrected result as a pending fixup until the following
// non-WIDE result either confirms or discards it.
func (b *BlobEngine) fixWideStrings(results []ScannedString, minLength int, buf []byte) []ScannedString {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()

	var out []ScannedString
	var pending *ScannedString

	for _, r := range results {
		if r.Kind == UTF16LE {
			encoded, err := enc.String(r.Text)
			if err == nil && len(encoded) > 0 && encoded[0] == 0 {
				if r.Start+1 <= len(buf) {
					if rescanned, ok := b.Scanner.ScanOne(buf[r.Start+1:]); ok {
						fixup := ScannedString{
							Text:    rescanned.Text,
							Kind:    UTF8,
							Start:   rescanned.Start + r.Start + 1,
							End:     rescanned.End + r.Start + 1,
							IsValid: rescanned.IsValid,
						}
						if len(fixup.Text) >= minLength {
							pending = &fixup
						}
					}
				}
			}
			continue
		}

		if pending != nil && strings.Contains(pending.Text, r.Text) {
			out = append(out, *pending)
		} else {
			out = append(out, r)
		}
		pending = nil
	}
	return out
}

// projectUTF8 drops non-UTF-8 survivors, strips embedded newlines, and
// translates section-relative offsets into file offsets.
func (b *BlobEngine) projectUTF8(results []ScannedString, rdata SectionView, minLength int) []StaticString {
	var out []StaticString
	for _, r := range results {
		if r.Kind != UTF8 {
			continue
		}
		text := strings.ReplaceAll(r.Text, "\n", "")
		offset := rdata.Start() + int64(r.Start)
		if s, ok := NewStaticString(text, offset, UTF8, minLength); ok {
			out = append(out, s)
		}
	}
	return out
}

// collectXrefVAs forms the architecture-gated union of struct-string
// candidate addresses and instruction xrefs, per §4.4 step 5.
func (b *BlobEngine) collectXrefVAs(pe PEFile, rdata SectionView) []uint64 {
	ptrSize := pe.Machine().PointerSize()
	if ptrSize == 0 {
		b.Logger.Warn("blob engine: unsupported machine type", "machine", pe.Machine())
		return nil
	}

	candidates := FindStructStringCandidates(pe, rdata, ptrSize)
	structVAs := lo.Map(candidates, func(c StructCandidate, _ int) uint64 { return c.Address() })

	vas := append(structVAs, XrefVAs(pe, rdata)...)
	return lo.Uniq(vas)
}

// splitAtXrefs translates the xref VAs to file offsets, sorts them
// ascending, and applies them one at a time; each split builds a fresh
// slice instead of mutating the one being ranged over (§9).
func splitAtXrefs(strs []StaticString, vas []uint64, rdata SectionView, imageBase uint64, minLength int) []StaticString {
	offsets := make([]int64, 0, len(vas))
	for _, va := range vas {
		offsets = append(offsets, rdata.FileOffset(va, imageBase))
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	current := append([]StaticString(nil), strs...)
	for _, off := range offsets {
		current = splitOneOffset(current, off, minLength)
	}
	return current
}

// splitOneOffset performs at most one split: the first currently-held
// string whose body strictly contains off is replaced by its two halves
// (each only kept if it still meets minLength).
func splitOneOffset(strs []StaticString, off int64, minLength int) []StaticString {
	for i, s := range strs {
		if !(s.Offset < off && off < s.Offset+int64(len(s.Bytes))) {
			continue
		}
		splitAt := int(off - s.Offset)
		left := s.Bytes[:splitAt]
		right := s.Bytes[splitAt:]

		out := make([]StaticString, 0, len(strs)+1)
		out = append(out, strs[:i]...)
		if ls, ok := NewStaticString(left, s.Offset, s.Encoding, minLength); ok {
			out = append(out, ls)
		}
		if rs, ok := NewStaticString(right, off, s.Encoding, minLength); ok {
			out = append(out, rs)
		}
		out = append(out, strs[i+1:]...)
		return out
	}
	return strs
}
