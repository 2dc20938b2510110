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

//go:build unix && !linux

package wasi

import "golang.org/x/sys/unix"

const sockSendFlags = 0

// ioctlReadable is the ioctl that reports the in-kernel buffered byte count.
const ioctlReadable = unix.FIONREAD

// FdAdvise validates the advice and succeeds without acting on it; there is
// no posix_fadvise wrapper on this platform.
func (n *INode) FdAdvise(offset, length Filesize, advice Advice) Errno {
	if !n.ok() {
		return ErrnoBadF
	}
	if advice > AdviceNoReuse {
		return ErrnoInval
	}
	return ErrnoSuccess
}

// FdAllocate emulates posix_fallocate by extending the file when the range
// ends past the current size. Growth fills with zeros.
func (n *INode) FdAllocate(offset, length Filesize) Errno {
	if !n.ok() {
		return ErrnoBadF
	}

	var stat unix.Stat_t
	err := ignoringEINTR(func() error { return unix.Fstat(n.get(), &stat) })
	if err != nil {
		return mapError(err)
	}

	end := int64(offset) + int64(length)
	if end <= stat.Size {
		return ErrnoSuccess
	}
	n.stat = nil
	return mapError(ignoringEINTR(func() error {
		return unix.Ftruncate(n.get(), end)
	}))
}

// FdDatasync falls back to a full fsync; there is no fdatasync wrapper on
// this platform.
func (n *INode) FdDatasync() Errno {
	if !n.ok() {
		return ErrnoBadF
	}
	return mapError(ignoringEINTR(func() error { return unix.Fsync(n.get()) }))
}
