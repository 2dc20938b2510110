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

package wasi

import "golang.org/x/sys/unix"

// sockSendFlags suppresses SIGPIPE on sends to a closed peer.
const sockSendFlags = unix.MSG_NOSIGNAL

// ioctlReadable is the ioctl that reports the in-kernel buffered byte count.
// Linux spells FIONREAD as TIOCINQ.
const ioctlReadable = unix.TIOCINQ

// FdAdvise hints the kernel about the expected access pattern for the byte
// range.
func (n *INode) FdAdvise(offset, length Filesize, advice Advice) Errno {
	if !n.ok() {
		return ErrnoBadF
	}

	var adv int
	switch advice {
	case AdviceNormal:
		adv = unix.FADV_NORMAL
	case AdviceSequential:
		adv = unix.FADV_SEQUENTIAL
	case AdviceRandom:
		adv = unix.FADV_RANDOM
	case AdviceWillNeed:
		adv = unix.FADV_WILLNEED
	case AdviceDontNeed:
		adv = unix.FADV_DONTNEED
	case AdviceNoReuse:
		adv = unix.FADV_NOREUSE
	default:
		return ErrnoInval
	}
	return mapError(unix.Fadvise(n.get(), int64(offset), int64(length), adv))
}

// FdAllocate reserves storage for the byte range, extending the file if the
// range ends past the current size.
func (n *INode) FdAllocate(offset, length Filesize) Errno {
	if !n.ok() {
		return ErrnoBadF
	}
	n.stat = nil
	return mapError(ignoringEINTR(func() error {
		return unix.Fallocate(n.get(), 0, int64(offset), int64(length))
	}))
}

// FdDatasync flushes the file's data, but not necessarily its metadata, to
// storage.
func (n *INode) FdDatasync() Errno {
	if !n.ok() {
		return ErrnoBadF
	}
	return mapError(ignoringEINTR(func() error { return unix.Fdatasync(n.get()) }))
}
