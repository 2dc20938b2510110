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

//go:build !unix

package wasi

// INode is not supported on this platform. Every constructor reports
// ErrnoNotSup.
type INode struct{}

// Poller is not supported on this platform.
type Poller struct{}

func Open(path string, oflags Oflags, fdflags Fdflags, vfs VFSFlags) (*INode, Errno) {
	return nil, ErrnoNotSup
}

func StdIn() (*INode, Errno)  { return nil, ErrnoNotSup }
func StdOut() (*INode, Errno) { return nil, ErrnoNotSup }
func StdErr() (*INode, Errno) { return nil, ErrnoNotSup }

func (n *INode) PathOpen(path string, oflags Oflags, fdflags Fdflags, vfs VFSFlags) (*INode, Errno) {
	return nil, ErrnoNotSup
}

func (n *INode) Move() *INode { return &INode{} }
func (n *INode) Close()       {}

func (n *INode) FdAdvise(offset, length Filesize, advice Advice) Errno { return ErrnoNotSup }
func (n *INode) FdAllocate(offset, length Filesize) Errno              { return ErrnoNotSup }
func (n *INode) FdDatasync() Errno                                     { return ErrnoNotSup }
func (n *INode) FdSync() Errno                                         { return ErrnoNotSup }
func (n *INode) FdFdstatGet() (Fdstat, Errno)                          { return Fdstat{}, ErrnoNotSup }
func (n *INode) FdFdstatSetFlags(fdflags Fdflags) Errno                { return ErrnoNotSup }
func (n *INode) FdFilestatGet() (Filestat, Errno)                      { return Filestat{}, ErrnoNotSup }
func (n *INode) FdFilestatSetSize(size Filesize) Errno                 { return ErrnoNotSup }

func (n *INode) FdFilestatSetTimes(atim, mtim Timestamp, fstflags Fstflags) Errno {
	return ErrnoNotSup
}

func (n *INode) FdRead(iovs [][]byte) (Size, Errno)                     { return 0, ErrnoNotSup }
func (n *INode) FdWrite(iovs [][]byte) (Size, Errno)                    { return 0, ErrnoNotSup }
func (n *INode) FdPread(iovs [][]byte, offset Filesize) (Size, Errno)   { return 0, ErrnoNotSup }
func (n *INode) FdPwrite(iovs [][]byte, offset Filesize) (Size, Errno)  { return 0, ErrnoNotSup }
func (n *INode) FdSeek(delta Filedelta, whence Whence) (Filesize, Errno) {
	return 0, ErrnoNotSup
}
func (n *INode) FdTell() (Filesize, Errno)                              { return 0, ErrnoNotSup }
func (n *INode) FdReaddir(buf []byte, cookie Dircookie) (Size, Errno)   { return 0, ErrnoNotSup }

func (n *INode) PathCreateDirectory(path string) Errno            { return ErrnoNotSup }
func (n *INode) PathFilestatGet(path string) (Filestat, Errno)    { return Filestat{}, ErrnoNotSup }
func (n *INode) PathReadlink(path string, buf []byte) (Size, Errno) {
	return 0, ErrnoNotSup
}
func (n *INode) PathRemoveDirectory(path string) Errno { return ErrnoNotSup }
func (n *INode) PathSymlink(target, path string) Errno { return ErrnoNotSup }
func (n *INode) PathUnlinkFile(path string) Errno      { return ErrnoNotSup }

func (n *INode) PathFilestatSetTimes(path string, atim, mtim Timestamp, fstflags Fstflags) Errno {
	return ErrnoNotSup
}

func PathLink(oldDir *INode, oldPath string, newDir *INode, newPath string) Errno {
	return ErrnoNotSup
}

func PathRename(oldDir *INode, oldPath string, newDir *INode, newPath string) Errno {
	return ErrnoNotSup
}

func (n *INode) SockRecv(iovs [][]byte, riflags Riflags) (Size, Roflags, Errno) {
	return 0, 0, ErrnoNotSup
}
func (n *INode) SockSend(iovs [][]byte, siflags Siflags) (Size, Errno) { return 0, ErrnoNotSup }
func (n *INode) SockShutdown(sdflags Sdflags) Errno                    { return ErrnoNotSup }
func (n *INode) SockAccept() (*INode, Errno)                           { return nil, ErrnoNotSup }

func (n *INode) Filetype() (Filetype, Errno) { return FiletypeUnknown, ErrnoNotSup }
func (n *INode) IsDirectory() bool           { return false }
func (n *INode) IsSymlink() bool             { return false }
func (n *INode) Filesize() (Filesize, Errno) { return 0, ErrnoNotSup }
func (n *INode) CanBrowse() bool             { return false }

func PollOneoff(nsubscriptions Size) (*Poller, Errno) { return nil, ErrnoNotSup }

func (p *Poller) Clock(id ClockID, timeout, precision Timestamp, flags SubclockFlags, userdata Userdata) Errno {
	return ErrnoNotSup
}

func (p *Poller) Read(n *INode, userdata Userdata) Errno  { return ErrnoNotSup }
func (p *Poller) Write(n *INode, userdata Userdata) Errno { return ErrnoNotSup }
func (p *Poller) Wait(callback Callback) Errno            { return ErrnoNotSup }
func (p *Poller) Close()                                  {}
