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

import (
	"sync"

	"golang.org/x/sys/unix"
)

// The native timer strategy is probed once per process: if timerfd_create
// works, every clock subscription uses a timer descriptor; otherwise they all
// fall back to the notification pipe. The two are never mixed.
var (
	timerfdOnce      sync.Once
	timerfdAvailable bool
)

func timerfdSupported() bool {
	timerfdOnce.Do(func() {
		fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC|unix.TFD_NONBLOCK)
		if err == nil {
			unix.Close(fd)
			timerfdAvailable = true
		}
	})
	return timerfdAvailable
}

// timerfdClock is a kernel timer descriptor, directly pollable.
type timerfdClock struct {
	fdHolder
}

func newClockWaitable(id ClockID, timeout Timestamp, flags SubclockFlags) (clockWaitable, Errno) {
	if !timerfdSupported() {
		return newPipeClock(id, timeout, flags)
	}

	var clock int
	switch id {
	case ClockRealtime:
		clock = unix.CLOCK_REALTIME
	case ClockMonotonic:
		clock = unix.CLOCK_MONOTONIC
	case ClockProcessCputimeID, ClockThreadCputimeID:
		return nil, ErrnoNotSup
	default:
		return nil, ErrnoInval
	}

	fd, err := unix.TimerfdCreate(clock, unix.TFD_CLOEXEC|unix.TFD_NONBLOCK)
	if err != nil {
		return nil, mapError(err)
	}

	var settimeFlags int
	if flags&SubclockFlagsAbstime != 0 {
		settimeFlags = unix.TFD_TIMER_ABSTIME
	}
	ns := int64(timeout)
	// A literal zero disarms a timerfd instead of firing it.
	if ns == 0 {
		ns = 1
	}

	spec := unix.ItimerSpec{Value: unix.NsecToTimespec(ns)}
	if err := unix.TimerfdSettime(fd, settimeFlags, &spec, nil); err != nil {
		unix.Close(fd)
		return nil, mapError(err)
	}

	c := &timerfdClock{}
	c.emplace(fd)
	return c, ErrnoSuccess
}

func (c *timerfdClock) fd() int {
	return c.get()
}

func (c *timerfdClock) close() {
	c.reset()
}
