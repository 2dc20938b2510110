//go:build unix

package wasi

import (
	"syscall"
	"testing"
	"time"
)

// inodeFromFd wraps an existing descriptor in an INode for tests. The INode
// takes ownership.
func inodeFromFd(t *testing.T, fd int) *INode {
	t.Helper()
	node := &INode{}
	node.emplace(fd)
	t.Cleanup(node.Close)
	return node
}

// socketPair returns both ends of a connected stream socket pair as INodes.
func socketPair(t *testing.T) (*INode, *INode) {
	t.Helper()
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair failed: %v", err)
	}
	return inodeFromFd(t, fds[0]), inodeFromFd(t, fds[1])
}

// collect gathers Wait completions keyed by userdata.
type collect struct {
	completions map[Userdata]completion
}

func newCollect() *collect {
	return &collect{completions: make(map[Userdata]completion)}
}

func (c *collect) callback(userdata Userdata, errno Errno, eventtype Eventtype, nbytes Filesize, flags EventRwFlags) {
	if _, dup := c.completions[userdata]; dup {
		panic("subscription reported more than once")
	}
	c.completions[userdata] = completion{
		userdata:  userdata,
		errno:     errno,
		eventtype: eventtype,
		nbytes:    nbytes,
		flags:     flags,
	}
}

func TestPollOneoff_ZeroCapacity(t *testing.T) {
	if _, errno := PollOneoff(0); errno != ErrnoInval {
		t.Errorf("PollOneoff(0) = %v, want inval", errno)
	}
}

func TestPollOneoff_ClockFiresOnIdleDescriptor(t *testing.T) {
	local, _ := socketPair(t)

	p, errno := PollOneoff(2)
	if errno != ErrnoSuccess {
		t.Fatalf("PollOneoff failed: %v", errno)
	}
	defer p.Close()

	const timeout = 50 * time.Millisecond
	if errno := p.Clock(ClockMonotonic, Timestamp(timeout), 0, 0, 1); errno != ErrnoSuccess {
		t.Fatalf("Clock failed: %v", errno)
	}
	if errno := p.Read(local, 2); errno != ErrnoSuccess {
		t.Fatalf("Read failed: %v", errno)
	}

	start := time.Now()
	c := newCollect()
	if errno := p.Wait(c.callback); errno != ErrnoSuccess {
		t.Fatalf("Wait failed: %v", errno)
	}
	elapsed := time.Since(start)

	if elapsed < timeout-5*time.Millisecond {
		t.Errorf("Wait returned after %v, want at least ~%v", elapsed, timeout)
	}
	if len(c.completions) != 1 {
		t.Fatalf("got %d completions, want 1: %v", len(c.completions), c.completions)
	}
	got, ok := c.completions[1]
	if !ok || got.eventtype != EventtypeClock || got.errno != ErrnoSuccess {
		t.Errorf("completion = %+v, want successful clock event for userdata 1", got)
	}
}

func TestPollOneoff_ReadyDescriptorBeatsClock(t *testing.T) {
	local, peer := socketPair(t)

	payload := []byte("ready")
	if _, errno := peer.SockSend([][]byte{payload}, 0); errno != ErrnoSuccess {
		t.Fatalf("SockSend failed: %v", errno)
	}

	p, errno := PollOneoff(2)
	if errno != ErrnoSuccess {
		t.Fatalf("PollOneoff failed: %v", errno)
	}
	defer p.Close()

	if errno := p.Clock(ClockMonotonic, Timestamp(10*time.Second), 0, 0, 1); errno != ErrnoSuccess {
		t.Fatalf("Clock failed: %v", errno)
	}
	if errno := p.Read(local, 2); errno != ErrnoSuccess {
		t.Fatalf("Read failed: %v", errno)
	}

	start := time.Now()
	c := newCollect()
	if errno := p.Wait(c.callback); errno != ErrnoSuccess {
		t.Fatalf("Wait failed: %v", errno)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Wait blocked %v despite ready descriptor", elapsed)
	}

	got, ok := c.completions[2]
	if !ok || got.eventtype != EventtypeFdRead || got.errno != ErrnoSuccess {
		t.Fatalf("completion = %+v, want read event for userdata 2", got)
	}
	if got.nbytes != Filesize(len(payload)) {
		t.Errorf("nbytes = %d, want %d", got.nbytes, len(payload))
	}
	if _, clockFired := c.completions[1]; clockFired {
		t.Error("clock reported despite 10s timeout")
	}
}

func TestPollOneoff_WriteReadiness(t *testing.T) {
	local, _ := socketPair(t)

	p, errno := PollOneoff(1)
	if errno != ErrnoSuccess {
		t.Fatalf("PollOneoff failed: %v", errno)
	}
	defer p.Close()

	if errno := p.Write(local, 1); errno != ErrnoSuccess {
		t.Fatalf("Write failed: %v", errno)
	}

	c := newCollect()
	if errno := p.Wait(c.callback); errno != ErrnoSuccess {
		t.Fatalf("Wait failed: %v", errno)
	}
	got, ok := c.completions[1]
	if !ok || got.eventtype != EventtypeFdWrite || got.errno != ErrnoSuccess {
		t.Errorf("completion = %+v, want write event", got)
	}
}

func TestPollOneoff_RegularFileReportsSize(t *testing.T) {
	root := testFS(t, file("f", "0123456789"))
	f := mustPathOpen(t, root, "f", 0, VFSFlagsRead)

	p, errno := PollOneoff(1)
	if errno != ErrnoSuccess {
		t.Fatalf("PollOneoff failed: %v", errno)
	}
	defer p.Close()

	if errno := p.Read(f, 1); errno != ErrnoSuccess {
		t.Fatalf("Read failed: %v", errno)
	}

	c := newCollect()
	if errno := p.Wait(c.callback); errno != ErrnoSuccess {
		t.Fatalf("Wait failed: %v", errno)
	}
	if got := c.completions[1]; got.nbytes != 10 {
		t.Errorf("nbytes for regular file = %d, want full size 10", got.nbytes)
	}
}

func TestPollOneoff_HangupFlag(t *testing.T) {
	r, w, err := pipePair()
	if err != nil {
		t.Fatalf("pipe failed: %v", err)
	}
	reader := inodeFromFd(t, r)

	p, errno := PollOneoff(1)
	if errno != ErrnoSuccess {
		t.Fatalf("PollOneoff failed: %v", errno)
	}
	defer p.Close()

	if errno := p.Read(reader, 1); errno != ErrnoSuccess {
		t.Fatalf("Read failed: %v", errno)
	}
	syscall.Close(w)

	c := newCollect()
	if errno := p.Wait(c.callback); errno != ErrnoSuccess {
		t.Fatalf("Wait failed: %v", errno)
	}
	got := c.completions[1]
	if got.errno != ErrnoSuccess || got.flags&EventRwFlagsHangup == 0 {
		t.Errorf("completion = %+v, want hangup flag", got)
	}
}

func pipePair() (r, w int, err error) {
	var p [2]int
	if err := syscall.Pipe(p[:]); err != nil {
		return 0, 0, err
	}
	return p[0], p[1], nil
}

func TestPollOneoff_CapacityOverflow(t *testing.T) {
	p, errno := PollOneoff(1)
	if errno != ErrnoSuccess {
		t.Fatalf("PollOneoff failed: %v", errno)
	}
	defer p.Close()

	if errno := p.Clock(ClockMonotonic, Timestamp(time.Millisecond), 0, 0, 1); errno != ErrnoSuccess {
		t.Fatalf("first Clock failed: %v", errno)
	}
	if errno := p.Clock(ClockMonotonic, Timestamp(time.Millisecond), 0, 0, 2); errno != ErrnoInval {
		t.Errorf("Clock beyond capacity = %v, want inval", errno)
	}
}

func TestPollOneoff_WaitWithoutSubscriptions(t *testing.T) {
	p, errno := PollOneoff(2)
	if errno != ErrnoSuccess {
		t.Fatalf("PollOneoff failed: %v", errno)
	}
	defer p.Close()

	if errno := p.Wait(func(Userdata, Errno, Eventtype, Filesize, EventRwFlags) {}); errno != ErrnoInval {
		t.Errorf("Wait with no subscriptions = %v, want inval", errno)
	}
}

func TestPollOneoff_SingleUse(t *testing.T) {
	p, errno := PollOneoff(1)
	if errno != ErrnoSuccess {
		t.Fatalf("PollOneoff failed: %v", errno)
	}
	defer p.Close()

	if errno := p.Clock(ClockMonotonic, Timestamp(time.Millisecond), 0, 0, 1); errno != ErrnoSuccess {
		t.Fatalf("Clock failed: %v", errno)
	}
	if errno := p.Wait(func(Userdata, Errno, Eventtype, Filesize, EventRwFlags) {}); errno != ErrnoSuccess {
		t.Fatalf("Wait failed: %v", errno)
	}

	if errno := p.Clock(ClockMonotonic, Timestamp(time.Millisecond), 0, 0, 2); errno != ErrnoInval {
		t.Errorf("Clock after Wait = %v, want inval", errno)
	}
	if errno := p.Wait(func(Userdata, Errno, Eventtype, Filesize, EventRwFlags) {}); errno != ErrnoInval {
		t.Errorf("second Wait = %v, want inval", errno)
	}
	if len(p.timers) != 0 {
		t.Error("timer resources not released after Wait")
	}
}

func TestPollOneoff_CpuClockNotSupported(t *testing.T) {
	p, errno := PollOneoff(2)
	if errno != ErrnoSuccess {
		t.Fatalf("PollOneoff failed: %v", errno)
	}
	defer p.Close()

	if errno := p.Clock(ClockMonotonic, Timestamp(time.Millisecond), 0, 0, 1); errno != ErrnoSuccess {
		t.Fatalf("Clock failed: %v", errno)
	}
	if errno := p.Clock(ClockProcessCputimeID, Timestamp(time.Millisecond), 0, 0, 2); errno != ErrnoNotSup {
		t.Fatalf("cpu clock = %v, want notsup", errno)
	}

	// The failed registration tears down the first timer and poisons the
	// Poller; the errno surfaces again from Wait.
	if len(p.timers) != 0 {
		t.Error("timers not released after failed registration")
	}
	if errno := p.Wait(func(Userdata, Errno, Eventtype, Filesize, EventRwFlags) {}); errno != ErrnoNotSup {
		t.Errorf("Wait after failed registration = %v, want notsup", errno)
	}
}

func TestPollOneoff_AbstimeInPastFiresImmediately(t *testing.T) {
	p, errno := PollOneoff(1)
	if errno != ErrnoSuccess {
		t.Fatalf("PollOneoff failed: %v", errno)
	}
	defer p.Close()

	past := time.Now().Add(-time.Second).UnixNano()
	errno = p.Clock(ClockRealtime, Timestamp(past), 0, SubclockFlagsAbstime, 1)
	if errno != ErrnoSuccess {
		t.Fatalf("Clock failed: %v", errno)
	}

	start := time.Now()
	c := newCollect()
	if errno := p.Wait(c.callback); errno != ErrnoSuccess {
		t.Fatalf("Wait failed: %v", errno)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Wait took %v for an already expired deadline", elapsed)
	}
	if got := c.completions[1]; got.eventtype != EventtypeClock {
		t.Errorf("completion = %+v, want clock event", got)
	}
}

func TestPollOneoff_EmptyINodeSubscription(t *testing.T) {
	p, errno := PollOneoff(1)
	if errno != ErrnoSuccess {
		t.Fatalf("PollOneoff failed: %v", errno)
	}
	defer p.Close()

	var empty INode
	if errno := p.Read(&empty, 1); errno != ErrnoBadF {
		t.Errorf("Read on empty INode = %v, want badf", errno)
	}
}

func TestPollOneoff_CloseReleasesTimers(t *testing.T) {
	p, errno := PollOneoff(1)
	if errno != ErrnoSuccess {
		t.Fatalf("PollOneoff failed: %v", errno)
	}

	if errno := p.Clock(ClockMonotonic, Timestamp(time.Hour), 0, 0, 1); errno != ErrnoSuccess {
		t.Fatalf("Clock failed: %v", errno)
	}

	p.Close()
	if len(p.timers) != 0 {
		t.Error("Close did not release timers")
	}
	p.Close()

	if errno := p.Wait(func(Userdata, Errno, Eventtype, Filesize, EventRwFlags) {}); errno != ErrnoInval {
		t.Errorf("Wait after Close = %v, want inval", errno)
	}
}
