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

// Package wasi provides the host-side resource handles and event
// multiplexing that back a WASI preview1 system-call surface: INode wraps an
// open file, directory, or socket descriptor, and Poller performs one-shot
// batched waits over descriptors and timers. Guest memory access, capability
// enforcement, and path confinement are the caller's concern.
package wasi

import "encoding/binary"

// Scalar types shared across the API. Timestamp values are nanoseconds.
type (
	Size      uint32
	Filesize  uint64
	Filedelta int64
	Timestamp uint64
	Userdata  uint64
	Dircookie uint64
)

// Errno is a portable error code. ErrnoSuccess (the zero value) is the only
// success value; results paired with any other code must not be used.
type Errno uint16

// See github.com/WebAssembly/WASI/blob/wasi-0.1/preview1/witx/typenames.witx
// for a lot more error codes.
const (
	ErrnoSuccess     Errno = 0  // No error occurred.
	Errno2Big        Errno = 1  // Argument list too long.
	ErrnoAcces       Errno = 2  // Permission denied.
	ErrnoAgain       Errno = 6  // Try again.
	ErrnoBadF        Errno = 8  // Bad file descriptor.
	ErrnoBusy        Errno = 10 // Device or resource busy.
	ErrnoExist       Errno = 20 // File exists.
	ErrnoFault       Errno = 21 // Bad address.
	ErrnoFBig        Errno = 22 // File too large.
	ErrnoIntr        Errno = 27 // Interrupted function.
	ErrnoInval       Errno = 28 // Invalid argument.
	ErrnoIO          Errno = 29 // I/O error.
	ErrnoIsDir       Errno = 31 // Is a directory.
	ErrnoLoop        Errno = 32 // Too many levels of symbolic links.
	ErrnoMFile       Errno = 33 // Too many open files.
	ErrnoNameTooLong Errno = 37 // Filename too long.
	ErrnoNFile       Errno = 41 // Too many files open in system.
	ErrnoNoEnt       Errno = 44 // No such file or directory.
	ErrnoNoSpc       Errno = 51 // No space left on device.
	ErrnoNoSys       Errno = 52 // Function not implemented.
	ErrnoNotDir      Errno = 54 // Not a directory or symbolic link.
	ErrnoNotEmpty    Errno = 55 // Directory not empty.
	ErrnoNotSock     Errno = 57 // Not a socket.
	ErrnoNotSup      Errno = 58 // Not supported.
	ErrnoPerm        Errno = 63 // Operation not permitted.
	ErrnoPipe        Errno = 64 // Broken pipe.
	ErrnoNotCapable  Errno = 76 // Extension: Capabilities insufficient.
)

func (e Errno) String() string {
	switch e {
	case ErrnoSuccess:
		return "success"
	case Errno2Big:
		return "2big"
	case ErrnoAcces:
		return "acces"
	case ErrnoAgain:
		return "again"
	case ErrnoBadF:
		return "badf"
	case ErrnoBusy:
		return "busy"
	case ErrnoExist:
		return "exist"
	case ErrnoFault:
		return "fault"
	case ErrnoFBig:
		return "fbig"
	case ErrnoIntr:
		return "intr"
	case ErrnoInval:
		return "inval"
	case ErrnoIO:
		return "io"
	case ErrnoIsDir:
		return "isdir"
	case ErrnoLoop:
		return "loop"
	case ErrnoMFile:
		return "mfile"
	case ErrnoNameTooLong:
		return "nametoolong"
	case ErrnoNFile:
		return "nfile"
	case ErrnoNoEnt:
		return "noent"
	case ErrnoNoSpc:
		return "nospc"
	case ErrnoNoSys:
		return "nosys"
	case ErrnoNotDir:
		return "notdir"
	case ErrnoNotEmpty:
		return "notempty"
	case ErrnoNotSock:
		return "notsock"
	case ErrnoNotSup:
		return "notsup"
	case ErrnoPerm:
		return "perm"
	case ErrnoPipe:
		return "pipe"
	case ErrnoNotCapable:
		return "notcapable"
	default:
		return "unknown"
	}
}

// Filetype identifies the kind of object an open handle refers to.
type Filetype uint8

const (
	FiletypeUnknown         Filetype = 0
	FiletypeBlockDevice     Filetype = 1
	FiletypeCharacterDevice Filetype = 2
	FiletypeDirectory       Filetype = 3
	FiletypeRegularFile     Filetype = 4
	FiletypeSocketDgram     Filetype = 5
	FiletypeSocketStream    Filetype = 6
	FiletypeSymbolicLink    Filetype = 7
)

func (ft Filetype) String() string {
	switch ft {
	case FiletypeBlockDevice:
		return "block_device"
	case FiletypeCharacterDevice:
		return "character_device"
	case FiletypeDirectory:
		return "directory"
	case FiletypeRegularFile:
		return "regular_file"
	case FiletypeSocketDgram:
		return "socket_dgram"
	case FiletypeSocketStream:
		return "socket_stream"
	case FiletypeSymbolicLink:
		return "symbolic_link"
	default:
		return "unknown"
	}
}

// Oflags control how Open and PathOpen create or require the target.
type Oflags uint16

const (
	OflagsCreat     Oflags = 1 << 0
	OflagsDirectory Oflags = 1 << 1
	OflagsExcl      Oflags = 1 << 2
	OflagsTrunc     Oflags = 1 << 3
)

// Fdflags are the per-descriptor status flags.
type Fdflags uint16

const (
	FdflagsAppend   Fdflags = 1 << 0
	FdflagsDsync    Fdflags = 1 << 1
	FdflagsNonblock Fdflags = 1 << 2
	FdflagsRsync    Fdflags = 1 << 3
	FdflagsSync     Fdflags = 1 << 4
)

// VFSFlags select the access mode of a newly opened handle.
type VFSFlags uint8

const (
	VFSFlagsRead  VFSFlags = 1 << 0
	VFSFlagsWrite VFSFlags = 1 << 1
)

// Whence is the origin of a seek.
type Whence uint8

const (
	WhenceSet Whence = 0 // Seek relative to start-of-file.
	WhenceCur Whence = 1 // Seek relative to current position.
	WhenceEnd Whence = 2 // Seek relative to end-of-file.
)

// Advice is an access-pattern hint for FdAdvise.
type Advice uint8

const (
	AdviceNormal     Advice = 0
	AdviceSequential Advice = 1
	AdviceRandom     Advice = 2
	AdviceWillNeed   Advice = 3
	AdviceDontNeed   Advice = 4
	AdviceNoReuse    Advice = 5
)

// Fstflags control which timestamps FdFilestatSetTimes and
// PathFilestatSetTimes update, and whether the current time is used.
type Fstflags uint16

const (
	FstflagsAtim    Fstflags = 1 << 0
	FstflagsAtimNow Fstflags = 1 << 1
	FstflagsMtim    Fstflags = 1 << 2
	FstflagsMtimNow Fstflags = 1 << 3
)

// Rights is the capability bitmask reported by FdFdstatGet.
type Rights uint64

const (
	RightsFdDatasync           Rights = 1 << 0
	RightsFdRead               Rights = 1 << 1
	RightsFdSeek               Rights = 1 << 2
	RightsFdFdstatSetFlags     Rights = 1 << 3
	RightsFdSync               Rights = 1 << 4
	RightsFdTell               Rights = 1 << 5
	RightsFdWrite              Rights = 1 << 6
	RightsFdAdvise             Rights = 1 << 7
	RightsFdAllocate           Rights = 1 << 8
	RightsPathCreateDirectory  Rights = 1 << 9
	RightsPathCreateFile       Rights = 1 << 10
	RightsPathLinkSource       Rights = 1 << 11
	RightsPathLinkTarget       Rights = 1 << 12
	RightsPathOpen             Rights = 1 << 13
	RightsFdReaddir            Rights = 1 << 14
	RightsPathReadlink         Rights = 1 << 15
	RightsPathRenameSource     Rights = 1 << 16
	RightsPathRenameTarget     Rights = 1 << 17
	RightsPathFilestatGet      Rights = 1 << 18
	RightsPathFilestatSetSize  Rights = 1 << 19
	RightsPathFilestatSetTimes Rights = 1 << 20
	RightsFdFilestatGet        Rights = 1 << 21
	RightsFdFilestatSetSize    Rights = 1 << 22
	RightsFdFilestatSetTimes   Rights = 1 << 23
	RightsPathSymlink          Rights = 1 << 24
	RightsPathRemoveDirectory  Rights = 1 << 25
	RightsPathUnlinkFile       Rights = 1 << 26
	RightsPollFdReadwrite      Rights = 1 << 27
	RightsSockShutdown         Rights = 1 << 28
)

const rightsAll = ^Rights(0)

// DefaultDirRights are the rights inherent to a directory handle itself. We
// exclude rights that imply reading/writing "data" from the directory stream
// itself (directories are read with FdReaddir, not FdRead) or seeking.
const DefaultDirRights = rightsAll &^
	(RightsFdRead | RightsFdWrite | RightsFdSeek | RightsFdTell)

// DefaultFileRights are the rights inherent to a non-directory handle. We
// exclude the path-level rights, which only apply to directories.
const DefaultFileRights = rightsAll &^
	(RightsPathCreateDirectory | RightsPathCreateFile |
		RightsPathLinkSource | RightsPathLinkTarget | RightsPathOpen |
		RightsFdReaddir | RightsPathReadlink |
		RightsPathRenameSource | RightsPathRenameTarget |
		RightsPathFilestatGet | RightsPathFilestatSetSize |
		RightsPathFilestatSetTimes | RightsPathSymlink |
		RightsPathRemoveDirectory | RightsPathUnlinkFile)

// Filestat is the full metadata of a file, directory, or socket.
type Filestat struct {
	Dev      uint64
	Ino      uint64
	Filetype Filetype
	Nlink    uint64
	Size     Filesize
	Atim     Timestamp
	Mtim     Timestamp
	Ctim     Timestamp
}

// Fdstat describes the descriptor-level state of an open handle.
type Fdstat struct {
	Filetype         Filetype
	Flags            Fdflags
	RightsBase       Rights
	RightsInheriting Rights
}

// direntSize is the fixed header size preceding each name in the FdReaddir
// output buffer.
const direntSize = 24

// dirEntry represents one directory entry in the enumeration snapshot.
type dirEntry struct {
	name     string
	fileType Filetype
	ino      uint64
}

// bytes serializes the dirEntry to the dirent wire layout. The next parameter
// is the cookie of the entry that follows this one.
func (d *dirEntry) bytes(next Dircookie) []byte {
	nameLen := len(d.name)
	buf := make([]byte, direntSize+nameLen)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(next))
	binary.LittleEndian.PutUint64(buf[8:16], d.ino)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(nameLen))
	buf[20] = uint8(d.fileType)
	copy(buf[direntSize:], d.name)
	return buf
}

// Eventtype identifies the kind of a Poller subscription and of its
// completion.
type Eventtype uint8

const (
	EventtypeClock   Eventtype = 0
	EventtypeFdRead  Eventtype = 1
	EventtypeFdWrite Eventtype = 2
)

// EventRwFlags carry extra state on read/write completions.
type EventRwFlags uint16

const EventRwFlagsHangup EventRwFlags = 1 << 0

// ClockID selects the clock a Poller clock subscription measures against.
type ClockID uint32

const (
	ClockRealtime         ClockID = 0
	ClockMonotonic        ClockID = 1
	ClockProcessCputimeID ClockID = 2
	ClockThreadCputimeID  ClockID = 3
)

// SubclockFlags modify a clock subscription.
type SubclockFlags uint16

// SubclockFlagsAbstime interprets the subscription timeout as an absolute
// deadline on the chosen clock instead of a relative delay.
const SubclockFlagsAbstime SubclockFlags = 1 << 0

// Riflags modify a SockRecv.
type Riflags uint16

const (
	RiflagsRecvPeek    Riflags = 1 << 0
	RiflagsRecvWaitall Riflags = 1 << 1
)

// Roflags report out-of-band conditions from a SockRecv.
type Roflags uint16

const RoflagsRecvDataTruncated Roflags = 1 << 0

// Siflags modify a SockSend. No flags are currently defined.
type Siflags uint16

// Sdflags select which direction SockShutdown closes.
type Sdflags uint8

const (
	SdflagsRd Sdflags = 1 << 0
	SdflagsWr Sdflags = 1 << 1
)

// Callback receives one completed Poller subscription. The nbytes argument is
// meaningful for read/write completions only.
type Callback func(
	userdata Userdata,
	errno Errno,
	eventtype Eventtype,
	nbytes Filesize,
	flags EventRwFlags,
)
