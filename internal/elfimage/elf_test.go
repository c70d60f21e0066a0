package elfimage

import (
	"encoding/binary"
	"testing"
)

// buildMinimalELF assembles a minimal ELF32-BE-MIPS ET_EXEC with a single
// PT_LOAD segment containing `payload`, loaded at vaddr.
func buildMinimalELF(t *testing.T, vaddr uint32, payload []byte) []byte {
	t.Helper()
	be := binary.BigEndian

	const (
		ehdrOff = 0
		phOff   = ehdrSize
	)
	total := phOff + phdrSize + len(payload)
	buf := make([]byte, total)

	buf[0], buf[1], buf[2], buf[3] = elfMagic0, elfMagic1, elfMagic2, elfMagic3
	buf[4] = classELF32
	buf[5] = dataBigEnd
	buf[6] = 1 // EV_CURRENT
	be.PutUint16(buf[16:18], etExec)
	be.PutUint16(buf[18:20], emMIPS)
	be.PutUint32(buf[20:24], 1) // e_version
	be.PutUint32(buf[24:28], vaddr+0) // e_entry == start of segment
	be.PutUint32(buf[28:32], phOff)   // e_phoff
	be.PutUint32(buf[32:36], 0)       // e_shoff (none)
	be.PutUint16(buf[42:44], phdrSize)
	be.PutUint16(buf[44:46], 1) // phnum
	be.PutUint16(buf[46:48], 0) // shentsize
	be.PutUint16(buf[48:50], 0) // shnum
	be.PutUint16(buf[50:52], 0) // shstrndx

	phOffPos := phOff
	be.PutUint32(buf[phOffPos:phOffPos+4], PT_LOAD)
	be.PutUint32(buf[phOffPos+4:phOffPos+8], uint32(phOff+phdrSize)) // p_offset
	be.PutUint32(buf[phOffPos+8:phOffPos+12], vaddr)
	be.PutUint32(buf[phOffPos+16:phOffPos+20], uint32(len(payload))) // filesz
	be.PutUint32(buf[phOffPos+20:phOffPos+24], uint32(len(payload))) // memsz
	be.PutUint32(buf[phOffPos+24:phOffPos+28], PF_X|PF_R)

	copy(buf[phOff+phdrSize:], payload)
	return buf
}

func TestParse_Minimal(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x00, 0x00} // one NOP-ish word
	data := buildMinimalELF(t, 0x00100000, payload)

	img, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if img.EntryPoint != 0x00100000 {
		t.Fatalf("EntryPoint = %#x, want 0x00100000", img.EntryPoint)
	}
	if len(img.Segments) != 1 {
		t.Fatalf("len(Segments) = %d, want 1", len(img.Segments))
	}

	image, exec := img.LoadSegments()
	buf, ok := image[0x00100000]
	if !ok || len(buf) != len(payload) {
		t.Fatalf("LoadSegments did not place payload at vaddr")
	}
	if len(exec) != 1 || exec[0][0] != 0x00100000 {
		t.Fatalf("expected one executable range starting at vaddr, got %v", exec)
	}
}

func TestParse_RejectsBadMagic(t *testing.T) {
	data := make([]byte, ehdrSize)
	_, err := Parse(data)
	if err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestParse_RejectsWrongMachine(t *testing.T) {
	data := buildMinimalELF(t, 0x1000, []byte{0, 0, 0, 0})
	binary.BigEndian.PutUint16(data[18:20], 3) // EM_386
	_, err := Parse(data)
	if err == nil {
		t.Fatalf("expected error for non-MIPS machine")
	}
}

func TestParse_RejectsNonExec(t *testing.T) {
	data := buildMinimalELF(t, 0x1000, []byte{0, 0, 0, 0})
	binary.BigEndian.PutUint16(data[16:18], 1) // ET_REL
	_, err := Parse(data)
	if err == nil {
		t.Fatalf("expected error for non-ET_EXEC")
	}
}
