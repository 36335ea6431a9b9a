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

import "encoding/binary"

// maxPlausibleStringLength bounds the "length" half of a candidate
// (pointer, length) descriptor: any length above 1 MiB is treated as noise
// rather than a real Rust/Go string or slice header.
const maxPlausibleStringLength = 1 << 20

// FindStructStringCandidates scans rdata for pointer-sized (VA, length)
// pairs plausible as Rust `&str`/Go `string` headers: the pointer half must
// land inside rdata itself, and the length half must be a sane size.
// pointerSize is 4 for 32-bit PEs and 8 for 64-bit.
func FindStructStringCandidates(pe PEFile, rdata SectionView, pointerSize int) []StructCandidate {
	var candidates []StructCandidate
	imageBase := pe.ImageBase()
	buf := rdata.RawBytes
	step := pointerSize

	for i := 0; i+2*pointerSize <= len(buf); i += step {
		var ptr, length uint64
		if pointerSize == 8 {
			ptr = binary.LittleEndian.Uint64(buf[i : i+8])
			length = binary.LittleEndian.Uint64(buf[i+8 : i+16])
		} else {
			ptr = uint64(binary.LittleEndian.Uint32(buf[i : i+4]))
			length = uint64(binary.LittleEndian.Uint32(buf[i+4 : i+8]))
		}

		if !vaInSection(ptr, imageBase, rdata) {
			continue
		}
		if length == 0 || length > maxPlausibleStringLength {
			continue
		}
		// the described string must actually fit inside rdata.
		strOff := rdata.FileOffset(ptr, imageBase)
		if strOff+int64(length) > rdata.End() {
			continue
		}

		candidates = append(candidates, StructCandidate{address: ptr, length: length})
	}
	return candidates
}
