// Package elfimage parses the 32-bit big-endian MIPS ELF executables that
// are the analyzer's and runtime's input.
//
// No ELF-parsing library appears anywhere in the retrieval pack used for
// this module; the header layout and segment-loading rules here are deliberately
// bespoke rather than built on the stdlib debug/elf package, because the
// analyzer needs exact control over which fields are kept (e_entry,
// section sh_flags, symbol st_value/st_size, REL records) in the
// on-wire big-endian form, and debug/elf's generic object model hides the
// byte-for-byte layout the rest of this module depends on.
package elfimage

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrInvalidELF is returned (wrapped with detail) whenever a structural
// check on the ELF header fails.
var ErrInvalidELF = errors.New("invalid elf")

const (
	elfMagic0 = 0x7F
	elfMagic1 = 'E'
	elfMagic2 = 'L'
	elfMagic3 = 'F'

	classELF32   = 1
	dataBigEnd   = 2
	etExec       = 2
	emMIPS       = 8
	ehdrSize     = 52
	phdrSize     = 32
	shdrSize     = 40
	symEntrySize = 16

	PF_X = 0x1
	PF_W = 0x2
	PF_R = 0x4

	PT_LOAD = 1

	SHF_EXECINSTR = 0x4
)

// ProgramHeader is the subset of Elf32_Phdr the parser exposes.
type ProgramHeader struct {
	Type   uint32
	Offset uint32
	VAddr  uint32
	FileSz uint32
	MemSz  uint32
	Flags  uint32
}

// Section mirrors Elf32_Shdr plus its resolved name.
type Section struct {
	Name    string
	Type    uint32
	Flags   uint32
	Addr    uint32
	Offset  uint32
	Size    uint32
	Link    uint32
	Info    uint32
	EntSize uint32
}

// Symbol mirrors Elf32_Sym plus its resolved name.
type Symbol struct {
	Name  string
	Value uint32
	Size  uint32
	Info  uint8
	Shndx uint16
}

// Relocation mirrors an Elf32_Rel entry (MIPS uses REL, not RELA, for its
// object relocations; static executables rarely carry any, but partially
// linked ones do).
type Relocation struct {
	Offset uint32
	Sym    uint32
	Type   uint32
}

// Image is the parsed result: everything the analyzer and the ELF loader
// in internal/runtime need.
type Image struct {
	EntryPoint  uint32
	Segments    []ProgramHeader
	Sections    []Section
	Symbols     []Symbol
	Relocations []Relocation

	raw []byte
}

// STType extracts the ELF32_ST_TYPE nibble from Symbol.Info.
func (s Symbol) STType() uint8 { return s.Info & 0xF }

// Parse validates the header and decodes sections, symbols, program
// headers, and relocations. It fails fast (ErrInvalidELF) on any
// structural problem: this is the one layer where an error aborts the
// whole pipeline rather than being logged and skipped.
func Parse(data []byte) (*Image, error) {
	if len(data) < ehdrSize {
		return nil, fmt.Errorf("%w: file too small for ELF header (%d bytes)", ErrInvalidELF, len(data))
	}
	if data[0] != elfMagic0 || data[1] != elfMagic1 || data[2] != elfMagic2 || data[3] != elfMagic3 {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidELF)
	}
	if data[4] != classELF32 {
		return nil, fmt.Errorf("%w: not ELF32", ErrInvalidELF)
	}
	if data[5] != dataBigEnd {
		return nil, fmt.Errorf("%w: not big-endian", ErrInvalidELF)
	}

	be := binary.BigEndian
	etype := be.Uint16(data[16:18])
	machine := be.Uint16(data[18:20])
	if machine != emMIPS {
		return nil, fmt.Errorf("%w: e_machine=%d, want EM_MIPS", ErrInvalidELF, machine)
	}
	if etype != etExec {
		return nil, fmt.Errorf("%w: e_type=%d, want ET_EXEC", ErrInvalidELF, etype)
	}

	img := &Image{raw: data}
	img.EntryPoint = be.Uint32(data[24:28])

	phoff := be.Uint32(data[28:32])
	shoff := be.Uint32(data[32:36])
	phentsize := be.Uint16(data[42:44])
	phnum := be.Uint16(data[44:46])
	shentsize := be.Uint16(data[46:48])
	shnum := be.Uint16(data[48:50])
	shstrndx := be.Uint16(data[50:52])

	if phentsize != 0 && phentsize != phdrSize {
		return nil, fmt.Errorf("%w: unexpected phentsize %d", ErrInvalidELF, phentsize)
	}
	if shentsize != 0 && shentsize != shdrSize {
		return nil, fmt.Errorf("%w: unexpected shentsize %d", ErrInvalidELF, shentsize)
	}

	for i := 0; i < int(phnum); i++ {
		off := int(phoff) + i*phdrSize
		if off+phdrSize > len(data) {
			return nil, fmt.Errorf("%w: program header %d out of range", ErrInvalidELF, i)
		}
		ph := ProgramHeader{
			Type:   be.Uint32(data[off : off+4]),
			Offset: be.Uint32(data[off+4 : off+8]),
			VAddr:  be.Uint32(data[off+8 : off+12]),
			FileSz: be.Uint32(data[off+16 : off+20]),
			MemSz:  be.Uint32(data[off+20 : off+24]),
			Flags:  be.Uint32(data[off+24 : off+28]),
		}
		img.Segments = append(img.Segments, ph)
	}

	type rawShdr struct {
		nameOff uint32
		sec     Section
	}
	var rawSections []rawShdr
	for i := 0; i < int(shnum); i++ {
		off := int(shoff) + i*shdrSize
		if off+shdrSize > len(data) {
			return nil, fmt.Errorf("%w: section header %d out of range", ErrInvalidELF, i)
		}
		sec := Section{
			Type:    be.Uint32(data[off+4 : off+8]),
			Flags:   be.Uint32(data[off+8 : off+12]),
			Addr:    be.Uint32(data[off+12 : off+16]),
			Offset:  be.Uint32(data[off+16 : off+20]),
			Size:    be.Uint32(data[off+20 : off+24]),
			Link:    be.Uint32(data[off+24 : off+28]),
			Info:    be.Uint32(data[off+28 : off+32]),
			EntSize: be.Uint32(data[off+36 : off+40]),
		}
		rawSections = append(rawSections, rawShdr{nameOff: be.Uint32(data[off : off+4]), sec: sec})
	}

	var shstrtab []byte
	if int(shstrndx) < len(rawSections) {
		s := rawSections[shstrndx].sec
		if int(s.Offset+s.Size) <= len(data) {
			shstrtab = data[s.Offset : s.Offset+s.Size]
		}
	}
	for _, rs := range rawSections {
		sec := rs.sec
		sec.Name = cString(shstrtab, rs.nameOff)
		img.Sections = append(img.Sections, sec)
	}

	symtab, strtab := findSymtab(img.Sections, data)
	if symtab != nil {
		count := len(symtab) / symEntrySize
		for i := 0; i < count; i++ {
			off := i * symEntrySize
			nameOff := be.Uint32(symtab[off : off+4])
			sym := Symbol{
				Name:  cString(strtab, nameOff),
				Value: be.Uint32(symtab[off+4 : off+8]),
				Size:  be.Uint32(symtab[off+8 : off+12]),
				Info:  symtab[off+12],
				Shndx: be.Uint16(symtab[off+14 : off+16]),
			}
			img.Symbols = append(img.Symbols, sym)
		}
	}

	for _, sec := range img.Sections {
		if sec.Type != 9 { // SHT_REL
			continue
		}
		if int(sec.Offset+sec.Size) > len(data) {
			continue
		}
		buf := data[sec.Offset : sec.Offset+sec.Size]
		for off := 0; off+8 <= len(buf); off += 8 {
			infoWord := be.Uint32(buf[off+4 : off+8])
			img.Relocations = append(img.Relocations, Relocation{
				Offset: be.Uint32(buf[off : off+4]),
				Sym:    infoWord >> 8,
				Type:   infoWord & 0xFF,
			})
		}
	}

	return img, nil
}

func findSymtab(sections []Section, data []byte) (symtab, strtab []byte) {
	for i, sec := range sections {
		if sec.Type != 2 { // SHT_SYMTAB
			continue
		}
		if int(sec.Offset+sec.Size) > len(data) {
			continue
		}
		symtab = data[sec.Offset : sec.Offset+sec.Size]
		if int(sec.Link) < len(sections) {
			str := sections[sec.Link]
			if int(str.Offset+str.Size) <= len(data) {
				strtab = data[str.Offset : str.Offset+str.Size]
			}
		}
		_ = i
		return
	}
	return nil, nil
}

func cString(buf []byte, off uint32) string {
	if buf == nil || int(off) >= len(buf) {
		return ""
	}
	end := int(off)
	for end < len(buf) && buf[end] != 0 {
		end++
	}
	return string(buf[off:end])
}

// LoadSegments copies every PT_LOAD segment into a guest-address-indexed
// image and returns the list of executable (PF_X) address ranges so the
// caller can register them as code regions.
func (img *Image) LoadSegments() (image map[uint32][]byte, execRanges [][2]uint32) {
	image = make(map[uint32][]byte, len(img.Segments))
	for _, seg := range img.Segments {
		if seg.Type != PT_LOAD {
			continue
		}
		if int(seg.Offset+seg.FileSz) > len(img.raw) {
			continue
		}
		buf := make([]byte, seg.MemSz)
		copy(buf, img.raw[seg.Offset:seg.Offset+seg.FileSz])
		image[seg.VAddr] = buf
		if seg.Flags&PF_X != 0 {
			execRanges = append(execRanges, [2]uint32{seg.VAddr, seg.VAddr + seg.MemSz})
		}
	}
	return image, execRanges
}
