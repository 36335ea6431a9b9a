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

// defaultScanner is a minimal printable-run string scanner. The spec
// treats the scanner as an external black box (§6); this implementation
// exists so the module is runnable end to end without a real one wired in.
type defaultScanner struct{}

// NewDefaultScanner returns the package's built-in StringScanner.
func NewDefaultScanner() StringScanner { return defaultScanner{} }

func isPrintableASCII(b byte) bool { return b >= 0x20 && b <= 0x7E }

// Scan finds contiguous printable-ASCII runs (UTF8) and contiguous
// printable-ASCII-in-UTF16LE runs (WIDE_STRING/UTF16LE) at least minLength
// long, in the order they occur in buf.
func (defaultScanner) Scan(buf []byte, minLength int) []ScannedString {
	var out []ScannedString
	out = append(out, scanASCIIRuns(buf, minLength)...)
	out = append(out, scanWideRuns(buf, minLength)...)
	// merge by start offset to approximate the upstream scanner's
	// single-pass ordering.
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && out[j-1].Start > out[j].Start {
			out[j-1], out[j] = out[j], out[j-1]
			j--
		}
	}
	return out
}

func scanASCIIRuns(buf []byte, minLength int) []ScannedString {
	var out []ScannedString
	start := -1
	flush := func(end int) {
		if start >= 0 && end-start >= minLength {
			out = append(out, ScannedString{
				Text: string(buf[start:end]), Kind: UTF8, Start: start, End: end, IsValid: true,
			})
		}
		start = -1
	}
	for i, b := range buf {
		if isPrintableASCII(b) {
			if start < 0 {
				start = i
			}
		} else {
			flush(i)
		}
	}
	flush(len(buf))
	return out
}

func scanWideRuns(buf []byte, minLength int) []ScannedString {
	var out []ScannedString
	start := -1
	var chars []byte
	flush := func(end int) {
		if start >= 0 && len(chars) >= minLength {
			out = append(out, ScannedString{
				Text: string(chars), Kind: UTF16LE, Start: start, End: end, IsValid: true,
			})
		}
		start = -1
		chars = nil
	}
	for i := 0; i+1 < len(buf); i += 2 {
		lo, hi := buf[i], buf[i+1]
		if hi == 0 && isPrintableASCII(lo) {
			if start < 0 {
				start = i
			}
			chars = append(chars, lo)
		} else {
			flush(i)
		}
	}
	flush(len(buf))
	return out
}

// ScanOne returns the first printable-ASCII run in buf, treated as UTF8.
func (defaultScanner) ScanOne(buf []byte) (ScannedString, bool) {
	runs := scanASCIIRuns(buf, 1)
	if len(runs) == 0 {
		return ScannedString{}, false
	}
	return runs[0], true
}

// ASCII returns the text of every printable-ASCII run of at least length 1.
func (defaultScanner) ASCII(buf []byte) []string {
	runs := scanASCIIRuns(buf, 1)
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.Text
	}
	return out
}

// UTF16 returns the text of every printable-ASCII-in-UTF16LE run of at
// least length 1.
func (defaultScanner) UTF16(buf []byte) []string {
	runs := scanWideRuns(buf, 1)
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.Text
	}
	return out
}
