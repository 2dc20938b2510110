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

// Command wasihost is a small diagnostic tool for the wasi package. It lists
// a directory through FdReaddir and then runs one poll over stdin against a
// timeout, printing whichever completes first.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/gaecom/wasihost/wasi"
)

func main() {
	dirPath := flag.String("dir", ".", "directory to enumerate")
	timeout := flag.Duration("timeout", 5*time.Second, "poll timeout")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintln(os.Stderr, "logger:", err)
			os.Exit(1)
		}
		defer logger.Sync()
		wasi.SetLogger(logger)
	}

	if err := listDirectory(*dirPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := pollStdin(*timeout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func listDirectory(path string) error {
	dir, errno := wasi.Open(path, wasi.OflagsDirectory, 0, wasi.VFSFlagsRead)
	if errno != wasi.ErrnoSuccess {
		return fmt.Errorf("open %s: %v", path, errno)
	}
	defer dir.Close()

	fmt.Printf("%s:\n", path)
	buf := make([]byte, 4096)
	var cookie wasi.Dircookie
	for {
		size, errno := dir.FdReaddir(buf, cookie)
		if errno != wasi.ErrnoSuccess {
			return fmt.Errorf("readdir: %v", errno)
		}

		data := buf[:size]
		for len(data) >= 24 {
			next := binary.LittleEndian.Uint64(data[0:8])
			nameLen := int(binary.LittleEndian.Uint32(data[16:20]))
			typ := wasi.Filetype(data[20])
			if len(data) < 24+nameLen {
				break
			}
			fmt.Printf("  %-12v %s\n", typ, data[24:24+nameLen])
			cookie = wasi.Dircookie(next)
			data = data[24+nameLen:]
		}

		if int(size) < len(buf) {
			return nil
		}
	}
}

func pollStdin(timeout time.Duration) error {
	stdin, errno := wasi.StdIn()
	if errno != wasi.ErrnoSuccess {
		return fmt.Errorf("stdin: %v", errno)
	}
	defer stdin.Close()

	poller, errno := wasi.PollOneoff(2)
	if errno != wasi.ErrnoSuccess {
		return fmt.Errorf("poll: %v", errno)
	}
	defer poller.Close()

	const (
		clockTag wasi.Userdata = 1
		stdinTag wasi.Userdata = 2
	)
	if errno := poller.Clock(wasi.ClockMonotonic, wasi.Timestamp(timeout), 0, 0, clockTag); errno != wasi.ErrnoSuccess {
		return fmt.Errorf("clock subscription: %v", errno)
	}
	if errno := poller.Read(stdin, stdinTag); errno != wasi.ErrnoSuccess {
		return fmt.Errorf("read subscription: %v", errno)
	}

	fmt.Printf("waiting up to %v for stdin...\n", timeout)
	errno = poller.Wait(func(userdata wasi.Userdata, errno wasi.Errno, eventtype wasi.Eventtype, nbytes wasi.Filesize, flags wasi.EventRwFlags) {
		switch userdata {
		case clockTag:
			fmt.Println("timeout expired")
		case stdinTag:
			fmt.Printf("stdin readable: %d pending bytes (errno=%v, hangup=%v)\n",
				nbytes, errno, flags&wasi.EventRwFlagsHangup != 0)
		}
	})
	if errno != wasi.ErrnoSuccess {
		return fmt.Errorf("wait: %v", errno)
	}
	return nil
}
