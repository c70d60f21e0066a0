package kernel

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/ran-j/ps2recomp/internal/cpucontext"
	"github.com/ran-j/ps2recomp/internal/memory"
)

// fio open-flag bits, as passed by recompiled fioOpen calls.
const (
	fioSRdOnly = 0x0001
	fioSWrOnly = 0x0002
	fioSRdWr   = 0x0003
	fioSAppend = 0x0100
	fioSCreat  = 0x0200
	fioSTrunc  = 0x0400
)

// fioFile is an open host file handle, keyed by the guest-visible file
// descriptor (negative on error, like POSIX and like the EE's own fio
// API).
type fioFile struct {
	FD   int32
	File *os.File
	Path string
}

// sanitizePath strips a host:/cdrom:/mc0: device prefix, rejects
// absolute paths and ".." segments, and joins what remains against
// baseDir, generalizing file_io.go's sanitizePath to the EE's device
// prefixes. Every prefix resolves against the same baseDir; the host,
// CD and memory-card devices do not get separate roots.
func (k *Kernel) sanitizePath(guestPath string) (string, bool) {
	rest := guestPath
	for _, prefix := range []string{"host:", "host0:", "cdrom0:", "cdrom:", "mc0:", "mc1:"} {
		if strings.HasPrefix(guestPath, prefix) {
			rest = strings.TrimPrefix(guestPath, prefix)
			break
		}
	}
	rest = strings.TrimPrefix(rest, "/")

	if strings.Contains(rest, "..") {
		return "", false
	}

	root := k.baseDir
	if k.emulatedCwd != "" {
		root = filepath.Join(k.baseDir, k.emulatedCwd)
	}
	full := filepath.Join(root, rest)

	rel, err := filepath.Rel(k.baseDir, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}

	// An existing symlink at full could resolve outside baseDir even
	// though the lexical join above stays inside it.
	if realFull, err := filepath.EvalSymlinks(full); err == nil {
		if realRel, err := filepath.Rel(k.baseDir, realFull); err != nil || strings.HasPrefix(realRel, "..") {
			return "", false
		}
	}

	return full, true
}

// hostPathExists uses unix.Access directly rather than os.Stat so a
// permission-denied entry is distinguished from a missing one without
// parsing os.PathError internals.
func hostPathExists(path string) bool {
	return unix.Access(path, unix.F_OK) == nil
}

func readGuestString(mem *memory.Space, ptr uint32) string {
	var out []byte
	for i := 0; i < 1024; i++ {
		b, err := mem.Read8(ptr + uint32(i))
		if err != nil || b == 0 {
			break
		}
		out = append(out, b)
	}
	return string(out)
}

func toOSFlags(fioFlags uint32) int {
	var f int
	switch fioFlags & fioSRdWr {
	case fioSWrOnly:
		f = os.O_WRONLY
	case fioSRdWr:
		f = os.O_RDWR
	default:
		f = os.O_RDONLY
	}
	if fioFlags&fioSCreat != 0 {
		f |= os.O_CREATE
	}
	if fioFlags&fioSTrunc != 0 {
		f |= os.O_TRUNC
	}
	if fioFlags&fioSAppend != 0 {
		f |= os.O_APPEND
	}
	return f
}

// FioOpen resolves $a0 as a device-prefixed guest path, rejects
// traversal outside baseDir, and returns a negative fd on any failure.
func (k *Kernel) FioOpen(ctx *cpucontext.Context, mem *memory.Space) {
	namePtr := ctx.GPRU32(4)
	flags := ctx.GPRU32(5)
	guestPath := readGuestString(mem, namePtr)

	full, ok := k.sanitizePath(guestPath)
	if !ok {
		ctx.SetReturnS32(KE_ERROR)
		return
	}

	if flags&fioSCreat == 0 && !hostPathExists(full) {
		ctx.SetReturnS32(KE_ERROR)
		return
	}

	f, err := os.OpenFile(full, toOSFlags(flags), 0644)
	if err != nil {
		ctx.SetReturnS32(KE_ERROR)
		return
	}

	k.mu.Lock()
	fd := k.nextFD
	k.nextFD++
	k.fioFiles[fd] = &fioFile{FD: fd, File: f, Path: full}
	k.mu.Unlock()

	ctx.SetReturnS32(fd)
}

func (k *Kernel) findFio(fd int32) *fioFile {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.fioFiles[fd]
}

func (k *Kernel) FioClose(ctx *cpucontext.Context) {
	fd := int32(ctx.GPRU32(4))
	f := k.findFio(fd)
	if f == nil {
		ctx.SetReturnS32(KE_ERROR)
		return
	}
	_ = f.File.Close()
	k.mu.Lock()
	delete(k.fioFiles, fd)
	k.mu.Unlock()
	ctx.SetReturnS32(KE_OK)
}

func (k *Kernel) FioRead(ctx *cpucontext.Context, mem *memory.Space) {
	fd := int32(ctx.GPRU32(4))
	bufPtr := ctx.GPRU32(5)
	size := ctx.GPRU32(6)

	f := k.findFio(fd)
	if f == nil {
		ctx.SetReturnS32(KE_ERROR)
		return
	}

	buf := make([]byte, size)
	n, err := f.File.Read(buf)
	if err != nil && n == 0 {
		ctx.SetReturnS32(0)
		return
	}
	for i := 0; i < n; i++ {
		_ = mem.Write8(bufPtr+uint32(i), buf[i])
	}
	ctx.SetReturnS32(int32(n))
}

func (k *Kernel) FioWrite(ctx *cpucontext.Context, mem *memory.Space) {
	fd := int32(ctx.GPRU32(4))
	bufPtr := ctx.GPRU32(5)
	size := ctx.GPRU32(6)

	f := k.findFio(fd)
	if f == nil {
		ctx.SetReturnS32(KE_ERROR)
		return
	}

	buf := make([]byte, size)
	for i := uint32(0); i < size; i++ {
		buf[i], _ = mem.Read8(bufPtr + i)
	}
	n, err := f.File.Write(buf)
	if err != nil {
		ctx.SetReturnS32(KE_ERROR)
		return
	}
	ctx.SetReturnS32(int32(n))
}

// FioLseek mirrors POSIX lseek whence values (0=set, 1=cur, 2=end); a
// resulting offset outside the file's representable range returns
// KE_ERROR rather than silently clamping.
func (k *Kernel) FioLseek(ctx *cpucontext.Context) {
	fd := int32(ctx.GPRU32(4))
	offset := int32(ctx.GPRU32(5))
	whence := int(ctx.GPRU32(6))

	f := k.findFio(fd)
	if f == nil {
		ctx.SetReturnS32(KE_ERROR)
		return
	}
	if whence < 0 || whence > 2 {
		ctx.SetReturnS32(KE_ERROR)
		return
	}

	pos, err := f.File.Seek(int64(offset), whence)
	if err != nil || pos > 0x7FFFFFFF {
		ctx.SetReturnS32(KE_ERROR)
		return
	}
	ctx.SetReturnS32(int32(pos))
}

// FioGetstat writes the 64-byte iox_stat_t-equivalent struct: mode,
// attr, size (two 32-bit halves), then six zeroed timestamp fields.
func (k *Kernel) FioGetstat(ctx *cpucontext.Context, mem *memory.Space) {
	namePtr := ctx.GPRU32(4)
	outPtr := ctx.GPRU32(5)
	guestPath := readGuestString(mem, namePtr)

	full, ok := k.sanitizePath(guestPath)
	if !ok {
		ctx.SetReturnS32(KE_ERROR)
		return
	}

	info, err := os.Stat(full)
	if err != nil {
		ctx.SetReturnS32(KE_ERROR)
		return
	}

	var mode uint32 = 0x2100 // regular file, owner rw
	if info.IsDir() {
		mode = 0x1100
	}
	size := uint32(info.Size())

	buf := make([]byte, 64)
	putU32 := func(off int, v uint32) {
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
		buf[off+2] = byte(v >> 16)
		buf[off+3] = byte(v >> 24)
	}
	putU32(0, mode)
	putU32(4, 0) // attr
	putU32(8, size)
	putU32(12, 0) // size high

	for i, b := range buf {
		_ = mem.Write8(outPtr+uint32(i), b)
	}
	ctx.SetReturnS32(KE_OK)
}

func (k *Kernel) FioMkdir(ctx *cpucontext.Context, mem *memory.Space) {
	guestPath := readGuestString(mem, ctx.GPRU32(4))
	full, ok := k.sanitizePath(guestPath)
	if !ok {
		ctx.SetReturnS32(KE_ERROR)
		return
	}
	if err := os.Mkdir(full, 0755); err != nil {
		ctx.SetReturnS32(KE_ERROR)
		return
	}
	ctx.SetReturnS32(KE_OK)
}

func (k *Kernel) FioRmdir(ctx *cpucontext.Context, mem *memory.Space) {
	guestPath := readGuestString(mem, ctx.GPRU32(4))
	full, ok := k.sanitizePath(guestPath)
	if !ok {
		ctx.SetReturnS32(KE_ERROR)
		return
	}
	if err := os.Remove(full); err != nil {
		ctx.SetReturnS32(KE_ERROR)
		return
	}
	ctx.SetReturnS32(KE_OK)
}

func (k *Kernel) FioRemove(ctx *cpucontext.Context, mem *memory.Space) {
	guestPath := readGuestString(mem, ctx.GPRU32(4))
	full, ok := k.sanitizePath(guestPath)
	if !ok {
		ctx.SetReturnS32(KE_ERROR)
		return
	}
	if err := os.Remove(full); err != nil {
		ctx.SetReturnS32(KE_ERROR)
		return
	}
	ctx.SetReturnS32(KE_OK)
}

// FioChdir only updates the emulated cwd used to resolve relative
// paths; it never leaves baseDir, matching sanitizePath's guarantee.
func (k *Kernel) FioChdir(ctx *cpucontext.Context, mem *memory.Space) {
	guestPath := readGuestString(mem, ctx.GPRU32(4))
	full, ok := k.sanitizePath(guestPath)
	if !ok {
		ctx.SetReturnS32(KE_ERROR)
		return
	}
	rel, err := filepath.Rel(k.baseDir, full)
	if err != nil {
		ctx.SetReturnS32(KE_ERROR)
		return
	}
	k.mu.Lock()
	k.emulatedCwd = rel
	k.mu.Unlock()
	ctx.SetReturnS32(KE_OK)
}
