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
)

// mapError maps Go/syscall errors to a portable Errno. A nil error maps to
// ErrnoSuccess so call sites can return mapError(err) directly.
func mapError(err error) Errno {
	if err == nil {
		return ErrnoSuccess
	}

	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return ErrnoIO
	}

	switch errno {
	case syscall.E2BIG:
		return Errno2Big
	case syscall.EACCES:
		return ErrnoAcces
	case syscall.EPERM:
		return ErrnoPerm
	case syscall.ENOENT:
		return ErrnoNoEnt
	case syscall.EEXIST:
		return ErrnoExist
	case syscall.EFAULT:
		return ErrnoFault
	case syscall.EFBIG:
		return ErrnoFBig
	case syscall.EISDIR:
		return ErrnoIsDir
	case syscall.ENOTDIR:
		return ErrnoNotDir
	case syscall.EINTR:
		return ErrnoIntr
	case syscall.EINVAL:
		return ErrnoInval
	case syscall.ENOTEMPTY:
		return ErrnoNotEmpty
	case syscall.ELOOP:
		return ErrnoLoop
	case syscall.EBADF:
		return ErrnoBadF
	case syscall.EBUSY:
		return ErrnoBusy
	case syscall.EMFILE:
		return ErrnoMFile
	case syscall.ENFILE:
		return ErrnoNFile
	case syscall.ENAMETOOLONG:
		return ErrnoNameTooLong
	case syscall.ENOSPC:
		return ErrnoNoSpc
	case syscall.ENOSYS:
		return ErrnoNoSys
	case syscall.ENOTSOCK:
		return ErrnoNotSock
	case syscall.EOPNOTSUPP:
		return ErrnoNotSup
	case syscall.EPIPE:
		return ErrnoPipe
	case syscall.EAGAIN:
		return ErrnoAgain
	}
	// ENOTSUP equals EOPNOTSUPP on some platforms, so it cannot share the
	// switch case above.
	if errno == syscall.ENOTSUP {
		return ErrnoNotSup
	}

	return ErrnoIO
}

// ignoringEINTR retries f until it completes without being interrupted by a
// signal. Interruptions are never surfaced to callers.
func ignoringEINTR(f func() error) error {
	for {
		err := f()
		if !errors.Is(err, syscall.EINTR) {
			return err
		}
	}
}

// ignoringEINTR2 is ignoringEINTR for calls that also return a count.
func ignoringEINTR2(f func() (int, error)) (int, error) {
	for {
		n, err := f()
		if !errors.Is(err, syscall.EINTR) {
			return n, err
		}
	}
}
