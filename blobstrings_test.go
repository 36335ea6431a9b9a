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

import "testing"

// fixedScanOneScanner is a test double whose ScanOne always returns a
// fixed result, regardless of the buffer it is given; the other methods
// are unused by fixWideStrings and simply panic if called.
type fixedScanOneScanner struct {
	result ScannedString
	ok     bool
}

func (s fixedScanOneScanner) Scan([]byte, int) []ScannedString     { panic("unused") }
func (s fixedScanOneScanner) ScanOne([]byte) (ScannedString, bool) { return s.result, s.ok }
func (s fixedScanOneScanner) ASCII([]byte) []string                { panic("unused") }
func (s fixedScanOneScanner) UTF16([]byte) []string                { panic("unused") }

// TestFixWideStrings_Fixup exercises §4.4 step 3: a WIDE_STRING result
// whose first character re-encodes to a zero low byte is evidence of a
// misparsed UTF-8 string starting one byte in. The WIDE_STRING text here
// starts with U+0100, whose UTF-16LE encoding is 0x00 0x01 — a genuine
// zero-first-byte case, unlike plain ASCII text which never satisfies the
// precondition.
func TestFixWideStrings_Fixup(t *testing.T) {
	scanner := fixedScanOneScanner{
		result: ScannedString{Text: "fooo", Start: 0, End: 4, IsValid: true},
		ok:     true,
	}
	engine := NewBlobEngine(scanner, nil)

	results := []ScannedString{
		{Text: "Āoo", Kind: UTF16LE, Start: 0, End: 6, IsValid: true},
		{Text: "oo", Kind: UTF8, Start: 1, End: 3, IsValid: true},
	}
	buf := make([]byte, 8)

	got := engine.fixWideStrings(results, 2, buf)

	if len(got) != 1 {
		t.Fatalf("fixWideStrings returned %d results, want 1: %+v", len(got), got)
	}
	want := ScannedString{Text: "fooo", Kind: UTF8, Start: 1, End: 5, IsValid: true}
	if got[0] != want {
		t.Errorf("fixWideStrings = %+v, want %+v", got[0], want)
	}
}

// TestFixWideStrings_NoFixupBelowMinLength checks that a pending fixup
// shorter than min_length never gets held, so the following result is
// emitted untouched.
func TestFixWideStrings_NoFixupBelowMinLength(t *testing.T) {
	scanner := fixedScanOneScanner{
		result: ScannedString{Text: "fo", Start: 0, End: 2, IsValid: true},
		ok:     true,
	}
	engine := NewBlobEngine(scanner, nil)

	results := []ScannedString{
		{Text: "Āoo", Kind: UTF16LE, Start: 0, End: 6, IsValid: true},
		{Text: "oo", Kind: UTF8, Start: 1, End: 3, IsValid: true},
	}
	buf := make([]byte, 8)

	got := engine.fixWideStrings(results, 4, buf)
	if len(got) != 1 || got[0].Text != "oo" {
		t.Fatalf("fixWideStrings = %+v, want the untouched UTF8 result", got)
	}
}

func sectionFor(raw []byte, start int64) SectionView {
	return SectionView{
		VirtualAddress:   0x1000,
		PointerToRawData: uint32(start),
		SizeOfRawData:    uint32(len(raw)),
		RawBytes:         raw,
	}
}

// TestSplitAtXrefs_Basic is scenario 2 from §8: a single blob split cleanly
// in half by one xref.
func TestSplitAtXrefs_Basic(t *testing.T) {
	s, ok := NewStaticString("abcdefgh", 0x100, UTF8, 4)
	if !ok {
		t.Fatal("setup: NewStaticString rejected abcdefgh")
	}
	rdata := sectionFor(make([]byte, 0x200), 0)

	out := splitAtXrefs([]StaticString{s}, []uint64{uint64(rdata.VirtualAddress) + 0x104}, rdata, 0, 4)

	if len(out) != 2 {
		t.Fatalf("got %d strings, want 2: %+v", len(out), out)
	}
	if out[0].Bytes != "abcd" || out[0].Offset != 0x100 {
		t.Errorf("first half = %+v, want abcd@0x100", out[0])
	}
	if out[1].Bytes != "efgh" || out[1].Offset != 0x104 {
		t.Errorf("second half = %+v, want efgh@0x104", out[1])
	}
}

// TestSplitAtXrefs_BelowMinimum is scenario 3 from §8: splitting one byte
// off the minimum length drops the short half.
func TestSplitAtXrefs_BelowMinimum(t *testing.T) {
	s, ok := NewStaticString("abcdefgh", 0x100, UTF8, 4)
	if !ok {
		t.Fatal("setup: NewStaticString rejected abcdefgh")
	}
	rdata := sectionFor(make([]byte, 0x200), 0)

	out := splitAtXrefs([]StaticString{s}, []uint64{uint64(rdata.VirtualAddress) + 0x103}, rdata, 0, 4)

	if len(out) != 1 {
		t.Fatalf("got %d strings, want 1: %+v", len(out), out)
	}
	if out[0].Bytes != "defgh" || out[0].Offset != 0x103 {
		t.Errorf("surviving half = %+v, want defgh@0x103", out[0])
	}
}

func TestSplitAtXrefs_NeverDuplicates(t *testing.T) {
	s, _ := NewStaticString("abcdefgh", 0x100, UTF8, 4)
	rdata := sectionFor(make([]byte, 0x200), 0)

	out := splitAtXrefs([]StaticString{s}, []uint64{uint64(rdata.VirtualAddress) + 0x104}, rdata, 0, 4)

	seen := map[string]bool{}
	for _, a := range out {
		key := a.Bytes
		if seen[key] {
			t.Errorf("duplicate string %+v in split output", a)
		}
		seen[key] = true
	}
}
