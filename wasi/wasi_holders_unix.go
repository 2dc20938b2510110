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
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// fdHolder owns exactly one file descriptor. The descriptor is stored off by
// one so the zero value holds nothing (descriptor 0 is a valid descriptor).
type fdHolder struct {
	raw int
}

func (h *fdHolder) ok() bool {
	return h.raw != 0
}

// get returns the owned descriptor, or -1 if the holder is empty.
func (h *fdHolder) get() int {
	return h.raw - 1
}

// reset closes the owned descriptor, if any. Safe to call more than once.
func (h *fdHolder) reset() {
	if h.raw != 0 {
		unix.Close(h.raw - 1)
		h.raw = 0
	}
}

// release transfers the descriptor out, leaving the holder empty. Returns -1
// if the holder was empty.
func (h *fdHolder) release() int {
	fd := h.raw - 1
	h.raw = 0
	return fd
}

// emplace takes ownership of fd, closing any previously owned descriptor.
func (h *fdHolder) emplace(fd int) {
	h.reset()
	h.raw = fd + 1
}

// dirHolder owns a directory enumeration handle together with the entry
// snapshot that backs the cookie space and the cookie the stream position
// corresponds to. The snapshot is only meaningful relative to that cookie
// space; restarting enumeration at cookie zero refreshes it.
type dirHolder struct {
	dir     *os.File
	cookie  Dircookie
	entries []dirEntry
}

func (h *dirHolder) ok() bool {
	return h.dir != nil
}

func (h *dirHolder) reset() {
	if h.dir != nil {
		h.dir.Close()
		h.dir = nil
	}
	h.cookie = 0
	h.entries = nil
}

func (h *dirHolder) release() *os.File {
	dir := h.dir
	h.dir = nil
	h.cookie = 0
	h.entries = nil
	return dir
}

func (h *dirHolder) emplace(dir *os.File) {
	h.reset()
	h.dir = dir
}

// timerHolder owns one armed one-shot timer. An absent timer means no timer
// is active; a present one must be disarmed exactly once.
type timerHolder struct {
	timer *time.Timer
}

func (h *timerHolder) ok() bool {
	return h.timer != nil
}

func (h *timerHolder) reset() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

func (h *timerHolder) release() *time.Timer {
	timer := h.timer
	h.timer = nil
	return timer
}

func (h *timerHolder) emplace(timer *time.Timer) {
	h.reset()
	h.timer = timer
}
