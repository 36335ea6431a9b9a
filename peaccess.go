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
	"debug/pe"
	"fmt"
)

// debugPEFile adapts the standard library's debug/pe reader to the PEFile
// interface this package consumes. The wrap-a-format-specific-reader
// pattern follows the pack's own exe/peExe adapter for multi-format binary
// scanning (ELF/Mach-O/PE behind one small interface, one constructor
// dispatching on file magic).
type debugPEFile struct {
	f         *pe.File
	imageBase uint64
	machine   Machine
}

// OpenPE opens path as a PE file and wraps it as a PEFile. A parse failure
// is reported as ErrNotAPE, per the error taxonomy in §7.
func OpenPE(path string) (PEFile, error) {
	f, err := pe.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAPE, err)
	}

	var imageBase uint64
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		imageBase = uint64(oh.ImageBase)
	case *pe.OptionalHeader64:
		imageBase = oh.ImageBase
	}

	return &debugPEFile{
		f:         f,
		imageBase: imageBase,
		machine:   MachineFromPE(f.FileHeader.Machine),
	}, nil
}

func (d *debugPEFile) ImageBase() uint64 { return d.imageBase }
func (d *debugPEFile) Machine() Machine  { return d.machine }

func (d *debugPEFile) Section(name string) (SectionView, bool) {
	for _, s := range d.f.Sections {
		if trimSectionName(s.Name) == name {
			data, err := s.Data()
			if err != nil {
				return SectionView{}, false
			}
			return SectionView{
				VirtualAddress:   s.VirtualAddress,
				PointerToRawData: s.Offset,
				SizeOfRawData:    s.Size,
				RawBytes:         data,
			}, true
		}
	}
	return SectionView{}, false
}

const imageScnMemExecute = 0x20000000

func (d *debugPEFile) ExecutableSections() []SectionView {
	var out []SectionView
	for _, s := range d.f.Sections {
		if s.Characteristics&imageScnMemExecute == 0 {
			continue
		}
		data, err := s.Data()
		if err != nil {
			continue
		}
		out = append(out, SectionView{
			VirtualAddress:   s.VirtualAddress,
			PointerToRawData: s.Offset,
			SizeOfRawData:    s.Size,
			RawBytes:         data,
		})
	}
	return out
}

// trimSectionName strips the leading '.' debug/pe keeps on section names
// (".rdata") so callers can ask for "rdata" as the spec's glossary does.
func trimSectionName(name string) string {
	if len(name) > 0 && name[0] == '.' {
		return name[1:]
	}
	return name
}
