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
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// pipeClock is the notification-channel fallback for platforms or kernels
// without a native timer descriptor. A runtime timer writes one byte to a
// pipe on expiry; the read end is the pollable descriptor.
type pipeClock struct {
	r fdHolder

	// mu serializes the expiry write against close. Timer.Stop does not wait
	// for a callback that is already running, so the write end may only be
	// released while no write is in flight.
	mu sync.Mutex
	w  fdHolder

	timer timerHolder
}

func newPipeClock(id ClockID, timeout Timestamp, flags SubclockFlags) (clockWaitable, Errno) {
	delay, errno := clockDelay(id, timeout, flags)
	if errno != ErrnoSuccess {
		return nil, errno
	}

	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return nil, mapError(err)
	}
	unix.CloseOnExec(p[0])
	unix.CloseOnExec(p[1])
	unix.SetNonblock(p[0], true)
	unix.SetNonblock(p[1], true)

	c := &pipeClock{}
	c.r.emplace(p[0])
	c.w.emplace(p[1])

	c.timer.emplace(time.AfterFunc(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.w.ok() {
			unix.Write(c.w.get(), []byte{0})
		}
	}))
	return c, ErrnoSuccess
}

func (c *pipeClock) fd() int {
	return c.r.get()
}

// close disarms the timer and releases the pipe. A callback that already
// slipped past Stop either finishes its write before the lock is taken or
// finds the write end empty and skips it.
func (c *pipeClock) close() {
	c.timer.reset()
	c.mu.Lock()
	c.w.reset()
	c.mu.Unlock()
	c.r.reset()
}

// clockDelay converts a subscription timeout to a relative delay. An already
// expired absolute deadline yields zero, firing immediately.
func clockDelay(id ClockID, timeout Timestamp, flags SubclockFlags) (time.Duration, Errno) {
	var delay time.Duration
	switch id {
	case ClockRealtime:
		if flags&SubclockFlagsAbstime != 0 {
			delay = time.Until(time.Unix(0, int64(timeout)))
		} else {
			delay = time.Duration(timeout)
		}
	case ClockMonotonic:
		if flags&SubclockFlagsAbstime != 0 {
			var now unix.Timespec
			if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &now); err != nil {
				return 0, mapError(err)
			}
			delay = time.Duration(int64(timeout) - unix.TimespecToNsec(now))
		} else {
			delay = time.Duration(timeout)
		}
	case ClockProcessCputimeID, ClockThreadCputimeID:
		return 0, ErrnoNotSup
	default:
		return 0, ErrnoInval
	}

	if delay < 0 {
		delay = 0
	}
	return delay, ErrnoSuccess
}
