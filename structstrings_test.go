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
	"encoding/binary"
	"testing"
)

func TestFindStructStringCandidates_64bit(t *testing.T) {
	raw := make([]byte, 0x40)
	// descriptor at offset 0: pointer -> va inside rdata, length 5
	ptrVA := testImageBase + 0x3000 + 0x20
	binary.LittleEndian.PutUint64(raw[0:8], ptrVA)
	binary.LittleEndian.PutUint64(raw[8:16], 5)
	copy(raw[0x20:0x25], "hello")

	rdata := rdataAt(0x3000, raw)
	pe := &fakePE{imageBase: testImageBase, machine: X64}

	candidates := FindStructStringCandidates(pe, rdata, 8)
	var found bool
	for _, c := range candidates {
		if c.Address() == ptrVA {
			found = true
		}
	}
	if !found {
		t.Errorf("FindStructStringCandidates did not surface expected candidate at 0x%x: %+v", ptrVA, candidates)
	}
}

func TestFindStructStringCandidates_RejectsOutOfSectionPointer(t *testing.T) {
	raw := make([]byte, 0x40)
	binary.LittleEndian.PutUint64(raw[0:8], 0xdeadbeef) // not inside rdata
	binary.LittleEndian.PutUint64(raw[8:16], 5)

	rdata := rdataAt(0x3000, raw)
	pe := &fakePE{imageBase: testImageBase, machine: X64}

	candidates := FindStructStringCandidates(pe, rdata, 8)
	if len(candidates) != 0 {
		t.Errorf("expected no candidates for out-of-section pointer, got %+v", candidates)
	}
}

func TestFindStructStringCandidates_RejectsImplausibleLength(t *testing.T) {
	raw := make([]byte, 0x40)
	ptrVA := testImageBase + 0x3000 + 0x20
	binary.LittleEndian.PutUint64(raw[0:8], ptrVA)
	binary.LittleEndian.PutUint64(raw[8:16], 1<<40) // absurd length

	rdata := rdataAt(0x3000, raw)
	pe := &fakePE{imageBase: testImageBase, machine: X64}

	candidates := FindStructStringCandidates(pe, rdata, 8)
	for _, c := range candidates {
		if c.Address() == ptrVA {
			t.Errorf("candidate with implausible length should have been rejected: %+v", c)
		}
	}
}

func TestFindStructStringCandidates_32bit(t *testing.T) {
	raw := make([]byte, 0x40)
	ptrVA := testImageBase + 0x3000 + 0x10
	binary.LittleEndian.PutUint32(raw[0:4], uint32(ptrVA))
	binary.LittleEndian.PutUint32(raw[4:8], 3)
	copy(raw[0x10:0x13], "hey")

	rdata := rdataAt(0x3000, raw)
	pe := &fakePE{imageBase: testImageBase, machine: X86}

	candidates := FindStructStringCandidates(pe, rdata, 4)
	var found bool
	for _, c := range candidates {
		if c.Address() == ptrVA {
			found = true
		}
	}
	if !found {
		t.Errorf("FindStructStringCandidates(32-bit) did not surface expected candidate: %+v", candidates)
	}
}
