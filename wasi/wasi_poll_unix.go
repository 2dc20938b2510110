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
	"syscall"

	"golang.org/x/sys/unix"
)

const (
	pollEventRead  = unix.POLLIN | unix.POLLPRI
	pollEventWrite = unix.POLLOUT
)

// pollMux multiplexes subscriptions over a single poll(2) call. Entries in
// fds and subs correspond by index.
type pollMux struct {
	fds  []unix.PollFd
	subs []subscription
}

func newMultiplexer(capacity int) multiplexer {
	return &pollMux{
		fds:  make([]unix.PollFd, 0, capacity),
		subs: make([]subscription, 0, capacity),
	}
}

func (m *pollMux) len() int {
	return len(m.subs)
}

func (m *pollMux) register(sub subscription) Errno {
	var events int16
	switch sub.eventtype {
	case EventtypeClock, EventtypeFdRead:
		events = pollEventRead
	case EventtypeFdWrite:
		events = pollEventWrite
	default:
		return ErrnoInval
	}

	m.fds = append(m.fds, unix.PollFd{Fd: int32(sub.fd), Events: events})
	m.subs = append(m.subs, sub)
	return ErrnoSuccess
}

// waitOnce blocks until at least one registered descriptor has revents.
// Signal interruptions restart the wait.
func (m *pollMux) waitOnce() Errno {
	for {
		_, err := unix.Poll(m.fds, -1)
		if err == nil {
			return ErrnoSuccess
		}
		if !errors.Is(err, syscall.EINTR) {
			return mapError(err)
		}
	}
}

func (m *pollMux) drain(f func(completion)) {
	for i := range m.fds {
		revents := m.fds[i].Revents
		if revents == 0 {
			continue
		}

		sub := m.subs[i]
		c := completion{userdata: sub.userdata, eventtype: sub.eventtype}
		switch {
		case revents&unix.POLLNVAL != 0:
			c.errno = ErrnoBadF
		case revents&unix.POLLERR != 0:
			c.errno = ErrnoIO
		default:
			if sub.eventtype != EventtypeClock {
				c.nbytes = pendingBytes(sub)
				if revents&unix.POLLHUP != 0 {
					c.flags |= EventRwFlagsHangup
				}
			}
		}
		f(c)
	}
}

// pendingBytes reports how much can be transferred without blocking: the full
// size for regular files, the in-kernel buffered count otherwise. Failures
// degrade to zero rather than to an error completion.
func pendingBytes(sub subscription) Filesize {
	if sub.regular {
		var stat unix.Stat_t
		if err := unix.Fstat(sub.fd, &stat); err == nil {
			return Filesize(stat.Size)
		}
		return 0
	}

	count, err := unix.IoctlGetInt(sub.fd, ioctlReadable)
	if err != nil || count < 0 {
		return 0
	}
	return Filesize(count)
}
