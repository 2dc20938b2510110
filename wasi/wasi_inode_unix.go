// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build unix

package wasi

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// defaultFileMode is the permission mode for newly created files.
const defaultFileMode = 0o600

// defaultDirMode is the permission mode for newly created directories.
const defaultDirMode = 0o755

// utimeNow and utimeOmit are special values for Timespec.Nsec.
var (
	utimeNow  int64 // Set to current time
	utimeOmit int64 // Don't change
)

func init() {
	switch runtime.GOOS {
	case "linux":
		// https://github.com/torvalds/linux/blob/master/include/linux/stat.h#L15-L16
		utimeNow = (1 << 30) - 1
		utimeOmit = (1 << 30) - 2
	case "darwin":
		// https://github.com/apple/darwin-xnu/blob/main/bsd/sys/stat.h#L575-L576
		utimeNow = -1
		utimeOmit = -2
	case "openbsd":
		// https://github.com/openbsd/src/blob/master/sys/sys/stat.h#L188-L189
		utimeNow = -1
		utimeOmit = -1
	default:
		// Most (all?) other UNIXes use -1/-2, e.g. FreeBSD:
		// https://github.com/freebsd/freebsd-src/blob/main/sys/sys/stat.h#L359-L360
		utimeNow = -1
		utimeOmit = -2
	}
}

// INode is an open handle to a file, directory, or socket. It owns the
// underlying descriptor plus, lazily, a directory enumeration handle and a
// metadata snapshot.
//
// An INode is obtained from Open, PathOpen, SockAccept, or the standard
// stream constructors; the zero value holds no resource and every operation
// on it reports ErrnoBadF. INodes are not safe for concurrent use.
//
// Path arguments to the Path* operations are passed to the OS verbatim.
// Confining them to a sandbox root (resolving symlinks, rejecting ".."
// escapes) is the caller's responsibility.
type INode struct {
	fdHolder
	dir  dirHolder
	stat *unix.Stat_t
}

// Open opens path directly, without a directory handle.
func Open(path string, oflags Oflags, fdflags Fdflags, vfs VFSFlags) (*INode, Errno) {
	flags := sysOpenFlags(oflags, fdflags, vfs)
	fd, err := ignoringEINTR2(func() (int, error) {
		return unix.Open(path, flags, defaultFileMode)
	})
	if err != nil {
		return nil, mapError(err)
	}
	logger.Debug("open", zap.String("path", path), zap.Int("fd", fd))

	node := &INode{}
	node.emplace(fd)
	return node, ErrnoSuccess
}

// PathOpen opens path relative to the directory n. The final component is
// never followed if it is a symlink.
func (n *INode) PathOpen(path string, oflags Oflags, fdflags Fdflags, vfs VFSFlags) (*INode, Errno) {
	if !n.ok() {
		return nil, ErrnoBadF
	}

	flags := sysOpenFlags(oflags, fdflags, vfs) | unix.O_NOFOLLOW
	fd, err := ignoringEINTR2(func() (int, error) {
		return unix.Openat(n.get(), path, flags, defaultFileMode)
	})
	if err != nil {
		return nil, mapError(err)
	}
	logger.Debug("openat", zap.String("path", path), zap.Int("fd", fd))

	node := &INode{}
	node.emplace(fd)
	return node, ErrnoSuccess
}

// StdIn returns an INode bound to the process's standard input.
func StdIn() (*INode, Errno) { return stdStream(unix.Stdin) }

// StdOut returns an INode bound to the process's standard output.
func StdOut() (*INode, Errno) { return stdStream(unix.Stdout) }

// StdErr returns an INode bound to the process's standard error.
func StdErr() (*INode, Errno) { return stdStream(unix.Stderr) }

// stdStream duplicates the descriptor so closing the INode never closes the
// process's own standard stream.
func stdStream(fd int) (*INode, Errno) {
	nfd, err := ignoringEINTR2(func() (int, error) { return unix.Dup(fd) })
	if err != nil {
		return nil, mapError(err)
	}
	unix.CloseOnExec(nfd)

	node := &INode{}
	node.emplace(nfd)
	return node, ErrnoSuccess
}

// Move transfers ownership of the underlying resources to a new INode. The
// receiver is left empty; operations on it report ErrnoBadF and closing it is
// a no-op.
func (n *INode) Move() *INode {
	moved := &INode{fdHolder: n.fdHolder, dir: n.dir, stat: n.stat}
	n.fdHolder = fdHolder{}
	n.dir = dirHolder{}
	n.stat = nil
	return moved
}

// Close releases every resource the INode owns. Safe to call more than once.
func (n *INode) Close() {
	n.dir.reset()
	n.stat = nil
	n.reset()
}

// sysOpenFlags converts the portable open flags to native open(2) flags.
func sysOpenFlags(oflags Oflags, fdflags Fdflags, vfs VFSFlags) int {
	flags := unix.O_CLOEXEC
	switch {
	case vfs&VFSFlagsRead != 0 && vfs&VFSFlagsWrite != 0:
		flags |= unix.O_RDWR
	case vfs&VFSFlagsWrite != 0:
		flags |= unix.O_WRONLY
	default:
		flags |= unix.O_RDONLY
	}

	if oflags&OflagsCreat != 0 {
		flags |= unix.O_CREAT
	}
	if oflags&OflagsDirectory != 0 {
		flags |= unix.O_DIRECTORY
	}
	if oflags&OflagsExcl != 0 {
		flags |= unix.O_EXCL
	}
	if oflags&OflagsTrunc != 0 {
		flags |= unix.O_TRUNC
	}

	if fdflags&FdflagsAppend != 0 {
		flags |= unix.O_APPEND
	}
	if fdflags&FdflagsDsync != 0 {
		flags |= unix.O_DSYNC
	}
	if fdflags&FdflagsNonblock != 0 {
		flags |= unix.O_NONBLOCK
	}
	if fdflags&FdflagsSync != 0 {
		flags |= unix.O_SYNC
	}
	// Note: FdflagsRsync maps to O_RSYNC, which equals O_SYNC on most systems.
	if fdflags&FdflagsRsync != 0 {
		flags |= unix.O_SYNC
	}

	return flags
}

// FdSync flushes the file's data and metadata to storage.
func (n *INode) FdSync() Errno {
	if !n.ok() {
		return ErrnoBadF
	}
	return mapError(ignoringEINTR(func() error { return unix.Fsync(n.get()) }))
}

// FdFdstatGet returns the descriptor-level state of the handle.
func (n *INode) FdFdstatGet() (Fdstat, Errno) {
	if !n.ok() {
		return Fdstat{}, ErrnoBadF
	}

	stat, errno := n.loadStat()
	if errno != ErrnoSuccess {
		return Fdstat{}, errno
	}

	osFlags, err := unix.FcntlInt(uintptr(n.get()), unix.F_GETFL, 0)
	if err != nil {
		return Fdstat{}, mapError(err)
	}

	var flags Fdflags
	if osFlags&unix.O_APPEND != 0 {
		flags |= FdflagsAppend
	}
	if osFlags&unix.O_DSYNC != 0 {
		flags |= FdflagsDsync
	}
	if osFlags&unix.O_NONBLOCK != 0 {
		flags |= FdflagsNonblock
	}
	if osFlags&unix.O_SYNC != 0 {
		flags |= FdflagsSync
	}

	fdstat := Fdstat{
		Filetype: filetypeFromMode(uint32(stat.Mode)),
		Flags:    flags,
	}
	if fdstat.Filetype == FiletypeDirectory {
		fdstat.RightsBase = DefaultDirRights
		fdstat.RightsInheriting = rightsAll
	} else {
		fdstat.RightsBase = DefaultFileRights
	}
	return fdstat, ErrnoSuccess
}

// FdFdstatSetFlags updates the descriptor status flags. Only the append and
// nonblock flags can change on an open descriptor.
func (n *INode) FdFdstatSetFlags(fdflags Fdflags) Errno {
	if !n.ok() {
		return ErrnoBadF
	}

	var osFlags int
	if fdflags&FdflagsAppend != 0 {
		osFlags |= unix.O_APPEND
	}
	if fdflags&FdflagsNonblock != 0 {
		osFlags |= unix.O_NONBLOCK
	}

	_, err := unix.FcntlInt(uintptr(n.get()), unix.F_SETFL, osFlags)
	return mapError(err)
}

// FdFilestatGet returns the full metadata of the handle.
func (n *INode) FdFilestatGet() (Filestat, Errno) {
	if !n.ok() {
		return Filestat{}, ErrnoBadF
	}
	stat, errno := n.loadStat()
	if errno != ErrnoSuccess {
		return Filestat{}, errno
	}
	return filestatFromUnix(stat), ErrnoSuccess
}

// FdFilestatSetSize truncates or extends the file. Growth fills with zeros.
func (n *INode) FdFilestatSetSize(size Filesize) Errno {
	if !n.ok() {
		return ErrnoBadF
	}
	n.stat = nil
	return mapError(ignoringEINTR(func() error {
		return unix.Ftruncate(n.get(), int64(size))
	}))
}

// FdFilestatSetTimes updates the access and modification timestamps of the
// open file itself.
func (n *INode) FdFilestatSetTimes(atim, mtim Timestamp, fstflags Fstflags) Errno {
	if !n.ok() {
		return ErrnoBadF
	}

	times, errno := buildTimespec(atim, mtim, fstflags)
	if errno != ErrnoSuccess {
		return errno
	}
	n.stat = nil

	// Uses /dev/fd/N to reference the open file descriptor, avoiding TOCTOU
	// races while maintaining nanosecond precision.
	path := fmt.Sprintf("/dev/fd/%d", n.get())
	return mapError(unix.UtimesNanoAt(unix.AT_FDCWD, path, times, 0))
}

// FdRead reads from the current file offset, scattering into iovs in order.
// It returns the total bytes read; a short count is not an error.
func (n *INode) FdRead(iovs [][]byte) (Size, Errno) {
	return n.readv(iovs, func(buf []byte) (int, error) {
		return ignoringEINTR2(func() (int, error) { return unix.Read(n.get(), buf) })
	})
}

// FdPread reads from the given offset, scattering into iovs in order. The
// file offset is not moved.
func (n *INode) FdPread(iovs [][]byte, offset Filesize) (Size, Errno) {
	pos := int64(offset)
	return n.readv(iovs, func(buf []byte) (int, error) {
		read, err := ignoringEINTR2(func() (int, error) {
			return unix.Pread(n.get(), buf, pos)
		})
		pos += int64(read)
		return read, err
	})
}

// FdWrite writes the iovs in order at the current file offset. It returns the
// total bytes written; a short count is not an error.
func (n *INode) FdWrite(iovs [][]byte) (Size, Errno) {
	n.stat = nil
	return n.writev(iovs, func(buf []byte) (int, error) {
		return ignoringEINTR2(func() (int, error) { return unix.Write(n.get(), buf) })
	})
}

// FdPwrite writes the iovs in order at the given offset. The file offset is
// not moved.
func (n *INode) FdPwrite(iovs [][]byte, offset Filesize) (Size, Errno) {
	n.stat = nil
	pos := int64(offset)
	return n.writev(iovs, func(buf []byte) (int, error) {
		written, err := ignoringEINTR2(func() (int, error) {
			return unix.Pwrite(n.get(), buf, pos)
		})
		pos += int64(written)
		return written, err
	})
}

// readv scatters data into iovs using readBytes, stopping at the first short
// read. A failure after data has already been transferred reports the partial
// count as success.
func (n *INode) readv(iovs [][]byte, readBytes func([]byte) (int, error)) (Size, Errno) {
	if !n.ok() {
		return 0, ErrnoBadF
	}

	var total Size
	for _, iov := range iovs {
		if len(iov) == 0 {
			continue
		}

		read, err := readBytes(iov)
		if err != nil && err != io.EOF {
			// The count is -1 on failure, never a partial transfer.
			if total > 0 {
				break
			}
			return 0, mapError(err)
		}
		total += Size(read)
		if read < len(iov) {
			break
		}
	}
	return total, ErrnoSuccess
}

func (n *INode) writev(iovs [][]byte, writeBytes func([]byte) (int, error)) (Size, Errno) {
	if !n.ok() {
		return 0, ErrnoBadF
	}

	var total Size
	for _, iov := range iovs {
		if len(iov) == 0 {
			continue
		}

		written, err := writeBytes(iov)
		if err != nil {
			if total > 0 {
				break
			}
			return 0, mapError(err)
		}
		total += Size(written)
		if written < len(iov) {
			break
		}
	}
	return total, ErrnoSuccess
}

// FdSeek moves the file offset and returns its new absolute position.
func (n *INode) FdSeek(delta Filedelta, whence Whence) (Filesize, Errno) {
	if !n.ok() {
		return 0, ErrnoBadF
	}

	var w int
	switch whence {
	case WhenceSet:
		w = io.SeekStart
	case WhenceCur:
		w = io.SeekCurrent
	case WhenceEnd:
		w = io.SeekEnd
	default:
		return 0, ErrnoInval
	}

	offset, err := unix.Seek(n.get(), int64(delta), w)
	if err != nil {
		return 0, mapError(err)
	}
	return Filesize(offset), ErrnoSuccess
}

// FdTell returns the current file offset without moving it.
func (n *INode) FdTell() (Filesize, Errno) {
	return n.FdSeek(0, WhenceCur)
}

// FdReaddir fills buf with directory entries starting at cookie. Each entry
// is a fixed 24-byte header followed by the raw name; the final entry is
// truncated if the buffer cannot hold it. A returned size smaller than
// len(buf) signals the end of the directory.
//
// Cookie zero restarts enumeration with a fresh snapshot. Any cookie returned
// from the current snapshot may be replayed and yields the same entry.
func (n *INode) FdReaddir(buf []byte, cookie Dircookie) (Size, Errno) {
	if !n.ok() {
		return 0, ErrnoBadF
	}

	if cookie == 0 || n.dir.entries == nil {
		if errno := n.refreshDirSnapshot(); errno != ErrnoSuccess {
			return 0, errno
		}
	}
	entries := n.dir.entries
	if cookie > Dircookie(len(entries)) {
		return 0, ErrnoInval
	}
	n.dir.cookie = cookie

	var size Size
	for i := int(cookie); i < len(entries); i++ {
		entry := entries[i].bytes(Dircookie(i + 1))
		size += Size(copy(buf[size:], entry))
		if int(size) == len(buf) {
			break
		}
	}
	return size, ErrnoSuccess
}

// refreshDirSnapshot re-lists the directory into the holder, synthesizing "."
// and ".." first. Entries are sorted by name to ensure consistent
// order/cookies across snapshots of an unchanged directory.
//
// The "." entry uses the directory's own inode; ".." uses inode 0 because the
// parent may not be reachable from a confined handle.
func (n *INode) refreshDirSnapshot() Errno {
	dir, errno := n.dirFile()
	if errno != ErrnoSuccess {
		return errno
	}

	var dirStat unix.Stat_t
	if err := ignoringEINTR(func() error { return unix.Fstat(n.get(), &dirStat) }); err != nil {
		return mapError(err)
	}

	if _, err := dir.Seek(0, io.SeekStart); err != nil {
		return mapError(err)
	}
	listed, err := dir.ReadDir(-1)
	if err != nil {
		return mapError(err)
	}
	sort.Slice(listed, func(i, j int) bool {
		return listed[i].Name() < listed[j].Name()
	})

	entries := make([]dirEntry, 0, len(listed)+2)
	entries = append(
		entries,
		dirEntry{name: ".", fileType: FiletypeDirectory, ino: dirStat.Ino},
		dirEntry{name: "..", fileType: FiletypeDirectory, ino: 0},
	)
	for _, entry := range listed {
		var stat unix.Stat_t
		err := unix.Fstatat(n.get(), entry.Name(), &stat, unix.AT_SYMLINK_NOFOLLOW)
		if err != nil {
			return mapError(err)
		}
		entries = append(entries, dirEntry{
			name:     entry.Name(),
			fileType: filetypeFromMode(uint32(stat.Mode)),
			ino:      stat.Ino,
		})
	}

	n.dir.entries = entries
	n.dir.cookie = 0
	return ErrnoSuccess
}

// dirFile returns the enumeration handle, creating it from a duplicate of the
// descriptor on first use.
func (n *INode) dirFile() (*os.File, Errno) {
	if n.dir.ok() {
		return n.dir.dir, ErrnoSuccess
	}

	fd, err := ignoringEINTR2(func() (int, error) { return unix.Dup(n.get()) })
	if err != nil {
		return nil, mapError(err)
	}
	unix.CloseOnExec(fd)

	n.dir.emplace(os.NewFile(uintptr(fd), ""))
	return n.dir.dir, ErrnoSuccess
}

// PathCreateDirectory creates a directory at path relative to n.
func (n *INode) PathCreateDirectory(path string) Errno {
	if !n.ok() {
		return ErrnoBadF
	}
	return mapError(unix.Mkdirat(n.get(), path, defaultDirMode))
}

// PathFilestatGet returns the metadata of the file at path relative to n,
// following a final symlink.
func (n *INode) PathFilestatGet(path string) (Filestat, Errno) {
	if !n.ok() {
		return Filestat{}, ErrnoBadF
	}

	var stat unix.Stat_t
	err := ignoringEINTR(func() error {
		return unix.Fstatat(n.get(), path, &stat, 0)
	})
	if err != nil {
		return Filestat{}, mapError(err)
	}
	return filestatFromUnix(&stat), ErrnoSuccess
}

// PathFilestatSetTimes updates the timestamps of the file at path relative
// to n.
func (n *INode) PathFilestatSetTimes(path string, atim, mtim Timestamp, fstflags Fstflags) Errno {
	if !n.ok() {
		return ErrnoBadF
	}

	times, errno := buildTimespec(atim, mtim, fstflags)
	if errno != ErrnoSuccess {
		return errno
	}
	return mapError(unix.UtimesNanoAt(n.get(), path, times, 0))
}

// PathReadlink reads the target of the symlink at path relative to n into
// buf, silently truncating if buf is too small. It returns the number of
// bytes written.
func (n *INode) PathReadlink(path string, buf []byte) (Size, Errno) {
	if !n.ok() {
		return 0, ErrnoBadF
	}

	read, err := ignoringEINTR2(func() (int, error) {
		return unix.Readlinkat(n.get(), path, buf)
	})
	if err != nil {
		return 0, mapError(err)
	}
	return Size(read), ErrnoSuccess
}

// PathRemoveDirectory removes the empty directory at path relative to n.
// A non-empty directory reports ErrnoNotEmpty on every OS family.
func (n *INode) PathRemoveDirectory(path string) Errno {
	if !n.ok() {
		return ErrnoBadF
	}

	err := unix.Unlinkat(n.get(), path, unix.AT_REMOVEDIR)
	// BSDs report EEXIST for a non-empty directory.
	if errors.Is(err, syscall.EEXIST) {
		return ErrnoNotEmpty
	}
	return mapError(err)
}

// PathUnlinkFile removes the file at path relative to n. A directory target
// reports ErrnoIsDir on every OS family.
func (n *INode) PathUnlinkFile(path string) Errno {
	if !n.ok() {
		return ErrnoBadF
	}

	// POSIX leaves the errno for unlinking a directory as EPERM or EISDIR
	// depending on the OS, so classify the target first.
	var stat unix.Stat_t
	err := unix.Fstatat(n.get(), path, &stat, unix.AT_SYMLINK_NOFOLLOW)
	if err == nil && stat.Mode&unix.S_IFMT == unix.S_IFDIR {
		return ErrnoIsDir
	}

	return mapError(unix.Unlinkat(n.get(), path, 0))
}

// PathSymlink creates a symlink at path relative to n pointing at target.
func (n *INode) PathSymlink(target, path string) Errno {
	if !n.ok() {
		return ErrnoBadF
	}
	return mapError(unix.Symlinkat(target, n.get(), path))
}

// PathLink creates a hard link at newPath relative to newDir pointing at the
// file at oldPath relative to oldDir. The two directories may belong to
// different trees.
func PathLink(oldDir *INode, oldPath string, newDir *INode, newPath string) Errno {
	if oldDir == nil || newDir == nil || !oldDir.ok() || !newDir.ok() {
		return ErrnoBadF
	}
	return mapError(unix.Linkat(oldDir.get(), oldPath, newDir.get(), newPath, 0))
}

// PathRename moves the file at oldPath relative to oldDir to newPath relative
// to newDir. The two directories may belong to different trees.
func PathRename(oldDir *INode, oldPath string, newDir *INode, newPath string) Errno {
	if oldDir == nil || newDir == nil || !oldDir.ok() || !newDir.ok() {
		return ErrnoBadF
	}
	return mapError(unix.Renameat(oldDir.get(), oldPath, newDir.get(), newPath))
}

// SockRecv receives from the socket, scattering into iovs. It reports the
// bytes received and whether the datagram was truncated.
func (n *INode) SockRecv(iovs [][]byte, riflags Riflags) (Size, Roflags, Errno) {
	if !n.ok() {
		return 0, 0, ErrnoBadF
	}
	if riflags&^(RiflagsRecvPeek|RiflagsRecvWaitall) != 0 {
		return 0, 0, ErrnoInval
	}

	var flags int
	if riflags&RiflagsRecvPeek != 0 {
		flags |= unix.MSG_PEEK
	}
	if riflags&RiflagsRecvWaitall != 0 {
		flags |= unix.MSG_WAITALL
	}

	var (
		read      int
		recvflags int
	)
	err := ignoringEINTR(func() error {
		var err error
		read, _, recvflags, _, err = unix.RecvmsgBuffers(n.get(), iovs, nil, flags)
		return err
	})
	if err != nil {
		return 0, 0, mapError(err)
	}

	var roflags Roflags
	if recvflags&unix.MSG_TRUNC != 0 {
		roflags |= RoflagsRecvDataTruncated
	}
	return Size(read), roflags, ErrnoSuccess
}

// SockSend sends the iovs over the socket and reports the bytes sent.
func (n *INode) SockSend(iovs [][]byte, siflags Siflags) (Size, Errno) {
	if !n.ok() {
		return 0, ErrnoBadF
	}
	if siflags != 0 {
		return 0, ErrnoInval
	}

	written, err := ignoringEINTR2(func() (int, error) {
		return unix.SendmsgBuffers(n.get(), iovs, nil, nil, sockSendFlags)
	})
	if err != nil {
		return 0, mapError(err)
	}
	return Size(written), ErrnoSuccess
}

// SockShutdown closes the read side, the write side, or both.
func (n *INode) SockShutdown(sdflags Sdflags) Errno {
	if !n.ok() {
		return ErrnoBadF
	}

	var how int
	switch sdflags {
	case SdflagsRd:
		how = unix.SHUT_RD
	case SdflagsWr:
		how = unix.SHUT_WR
	case SdflagsRd | SdflagsWr:
		how = unix.SHUT_RDWR
	default:
		return ErrnoInval
	}
	return mapError(unix.Shutdown(n.get(), how))
}

// SockAccept accepts a pending connection on a listening socket and wraps it
// in a new INode.
func (n *INode) SockAccept() (*INode, Errno) {
	if !n.ok() {
		return nil, ErrnoBadF
	}

	fd, err := ignoringEINTR2(func() (int, error) {
		nfd, _, err := unix.Accept(n.get())
		return nfd, err
	})
	if err != nil {
		return nil, mapError(err)
	}
	unix.CloseOnExec(fd)

	node := &INode{}
	node.emplace(fd)
	return node, ErrnoSuccess
}

// Filetype returns the kind of object the handle refers to.
func (n *INode) Filetype() (Filetype, Errno) {
	stat, errno := n.loadStat()
	if errno != ErrnoSuccess {
		return FiletypeUnknown, errno
	}
	return filetypeFromMode(uint32(stat.Mode)), ErrnoSuccess
}

// IsDirectory reports whether the handle refers to a directory.
func (n *INode) IsDirectory() bool {
	ft, errno := n.Filetype()
	return errno == ErrnoSuccess && ft == FiletypeDirectory
}

// IsSymlink reports whether the handle refers to a symbolic link.
func (n *INode) IsSymlink() bool {
	ft, errno := n.Filetype()
	return errno == ErrnoSuccess && ft == FiletypeSymbolicLink
}

// Filesize returns the size of the file in bytes.
func (n *INode) Filesize() (Filesize, Errno) {
	stat, errno := n.loadStat()
	if errno != ErrnoSuccess {
		return 0, errno
	}
	return Filesize(stat.Size), ErrnoSuccess
}

// CanBrowse reports whether the directory grants search permission to the
// calling process.
func (n *INode) CanBrowse() bool {
	if !n.ok() {
		return false
	}
	err := ignoringEINTR(func() error {
		return unix.Faccessat(n.get(), ".", unix.X_OK, 0)
	})
	return err == nil
}

// loadStat returns the cached metadata snapshot, fetching it on first use.
// Mutating operations on the handle invalidate the cache; external path
// mutation does not.
func (n *INode) loadStat() (*unix.Stat_t, Errno) {
	if !n.ok() {
		return nil, ErrnoBadF
	}
	if n.stat == nil {
		var stat unix.Stat_t
		err := ignoringEINTR(func() error { return unix.Fstat(n.get(), &stat) })
		if err != nil {
			return nil, mapError(err)
		}
		n.stat = &stat
	}
	return n.stat, ErrnoSuccess
}

// filestatFromUnix converts a unix.Stat_t to a Filestat.
func filestatFromUnix(s *unix.Stat_t) Filestat {
	return Filestat{
		Dev:      uint64(s.Dev),
		Ino:      uint64(s.Ino),
		Filetype: filetypeFromMode(uint32(s.Mode)),
		Nlink:    uint64(s.Nlink),
		Size:     Filesize(s.Size),
		Atim:     Timestamp(unix.TimespecToNsec(s.Atim)),
		Mtim:     Timestamp(unix.TimespecToNsec(s.Mtim)),
		Ctim:     Timestamp(unix.TimespecToNsec(s.Ctim)),
	}
}

// filetypeFromMode extracts the Filetype from a Unix mode.
func filetypeFromMode(mode uint32) Filetype {
	switch mode & unix.S_IFMT {
	case unix.S_IFBLK:
		return FiletypeBlockDevice
	case unix.S_IFCHR:
		return FiletypeCharacterDevice
	case unix.S_IFDIR:
		return FiletypeDirectory
	case unix.S_IFREG:
		return FiletypeRegularFile
	case unix.S_IFSOCK:
		return FiletypeSocketStream
	case unix.S_IFLNK:
		return FiletypeSymbolicLink
	default:
		return FiletypeUnknown
	}
}

func buildTimespec(atim, mtim Timestamp, fstflags Fstflags) ([]unix.Timespec, Errno) {
	// ATIM and ATIM_NOW are mutually exclusive, as are MTIM and MTIM_NOW
	if (fstflags&FstflagsAtim != 0 && fstflags&FstflagsAtimNow != 0) ||
		(fstflags&FstflagsMtim != 0 && fstflags&FstflagsMtimNow != 0) {
		return nil, ErrnoInval
	}

	var atimSpec unix.Timespec
	switch {
	case fstflags&FstflagsAtimNow != 0:
		atimSpec = unix.Timespec{Nsec: utimeNow}
	case fstflags&FstflagsAtim != 0:
		atimSpec = unix.NsecToTimespec(int64(atim))
	default:
		atimSpec = unix.Timespec{Nsec: utimeOmit}
	}

	var mtimSpec unix.Timespec
	switch {
	case fstflags&FstflagsMtimNow != 0:
		mtimSpec = unix.Timespec{Nsec: utimeNow}
	case fstflags&FstflagsMtim != 0:
		mtimSpec = unix.NsecToTimespec(int64(mtim))
	default:
		mtimSpec = unix.Timespec{Nsec: utimeOmit}
	}

	return []unix.Timespec{atimSpec, mtimSpec}, ErrnoSuccess
}
