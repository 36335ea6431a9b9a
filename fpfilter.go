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
	"regexp"

	"github.com/samber/lo"
)

// FP (false positive) filter patterns, applied to every candidate string
// regardless of length.
var (
	// Leading noise: up to two chars, optional {0,p,P}, one of ] ^ [ _ \ V, then A.
	fpFilterPrefix = regexp.MustCompile(`^.{0,2}[0pP]?[\]^\[_\\V]A`)
	// Trailing noise: optional {0,p,P}, one of V W U, then @ or A; or literal Tp.
	fpFilterSuffix = regexp.MustCompile(`[0pP]?[VWU][A@]$|Tp$`)
	// Any printable ASCII char repeated 4+ times contiguously.
	fpFilterRepeatedChar = regexp.MustCompile(`([ -~])\1{3,}`)
	// Any 4-char printable ASCII group (excluding space and %) repeated 5+ times.
	fpFilterRepeatedGroup = regexp.MustCompile(`([^% ]{4})\1{4,}`)
)

// Patterns applied only at the strict level, when the post-strip candidate
// is short.
const maxStrictLength = 6

var (
	fpFilterStrictInclude    = regexp.MustCompile(`^\[.*\]$|%[sd]`)
	fpFilterStrictKnownFP    = regexp.MustCompile(`^O.*A$`)
	fpFilterStrictSpecial    = regexp.MustCompile(`[^A-Za-z0-9.]`)
)

// fpBlocklist is a fixed set of CRT/runtime noise strings that are rejected
// outright after stripping, regardless of length.
var fpBlocklist = map[string]bool{
	"R6016":               true,
	"R6030":               true,
	"Program: ":           true,
	"Runtime Error!":      true,
	"bad locale name":     true,
	"ios_base::badbit set": true,
	"ios_base::eofbit set": true,
	"ios_base::failbit set": true,
	"- CRT not initialized": true,
	"<program name unknown>": true,
	"- floating point not loaded":          true,
	"- not enough space for thread data":   true,
	" !\"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~": true,
}

// StripFPNoise removes known FP pre- and suffixes from s, then, if the
// result is short enough and not an obvious exception, strips further down
// to alphanumerics. It is a pure function: calling it twice on its own
// output is a no-op (filter idempotence).
func StripFPNoise(s string) string {
	for _, re := range []*regexp.Regexp{fpFilterPrefix, fpFilterSuffix, fpFilterRepeatedChar, fpFilterRepeatedGroup} {
		s = re.ReplaceAllString(s, "")
	}
	if len(s) <= maxStrictLength && !fpFilterStrictInclude.MatchString(s) {
		s = fpFilterStrictKnownFP.ReplaceAllString(s, "")
		s = fpFilterStrictSpecial.ReplaceAllString(s, "")
	}
	return s
}

// FilterFP strips FP noise from s and reports whether the stripped result
// should be kept: it must meet minLength and must not appear in the
// blocklist of known CRT/runtime noise strings.
func FilterFP(s string, minLength int) (string, bool) {
	stripped := StripFPNoise(s)
	if len(stripped) < minLength {
		return "", false
	}
	if fpBlocklist[stripped] {
		return "", false
	}
	return stripped, true
}

// FilterStrings applies FilterFP to every candidate and returns the
// survivors, in order, using lo.FilterMap to keep the filter-then-collect
// shape used elsewhere in this package for candidate lists.
func FilterStrings(candidates []string, minLength int) []string {
	return lo.FilterMap(candidates, func(s string, _ int) (string, bool) {
		return FilterFP(s, minLength)
	})
}
