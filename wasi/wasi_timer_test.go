//go:build unix

package wasi

import (
	"errors"
	"syscall"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestPipeClock_Fires(t *testing.T) {
	c, errno := newPipeClock(ClockMonotonic, Timestamp(5*time.Millisecond), 0)
	if errno != ErrnoSuccess {
		t.Fatalf("newPipeClock failed: %v", errno)
	}
	defer c.close()

	fds := []unix.PollFd{{Fd: int32(c.fd()), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, 1000)
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		if err != nil {
			t.Fatalf("poll: %v", err)
		}
		if n == 0 {
			t.Fatal("clock did not become readable within a second")
		}
		break
	}
	if fds[0].Revents&unix.POLLIN == 0 {
		t.Errorf("revents = %#x, want POLLIN", fds[0].Revents)
	}
}

func TestPipeClock_CloseDuringExpiry(t *testing.T) {
	// A zero delay makes the expiry callback race close. Descriptors opened
	// right after close tend to reuse the clock's numbers, so a late expiry
	// write that escapes the teardown would land in the fresh pipe.
	for i := 0; i < 200; i++ {
		c, errno := newPipeClock(ClockMonotonic, 0, 0)
		if errno != ErrnoSuccess {
			t.Fatalf("newPipeClock failed: %v", errno)
		}
		c.close()

		var p [2]int
		if err := unix.Pipe(p[:]); err != nil {
			t.Fatalf("pipe: %v", err)
		}
		time.Sleep(time.Millisecond)
		count, err := unix.IoctlGetInt(p[0], ioctlReadable)
		unix.Close(p[0])
		unix.Close(p[1])
		if err != nil {
			t.Fatalf("ioctl: %v", err)
		}
		if count != 0 {
			t.Fatalf("iteration %d: %d stray bytes on a reused descriptor", i, count)
		}
	}
}
