//go:build unix

package wasi

import (
	"bytes"
	"syscall"
	"testing"
)

// datagramPair returns both ends of a connected datagram socket pair.
func datagramPair(t *testing.T) (*INode, *INode) {
	t.Helper()
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_DGRAM, 0)
	if err != nil {
		t.Fatalf("Socketpair failed: %v", err)
	}
	return inodeFromFd(t, fds[0]), inodeFromFd(t, fds[1])
}

func TestSockSendRecv_Scattered(t *testing.T) {
	local, peer := socketPair(t)

	payload := []byte("scattered payload")
	sent, errno := peer.SockSend([][]byte{payload[:4], payload[4:]}, 0)
	if errno != ErrnoSuccess {
		t.Fatalf("SockSend failed: %v", errno)
	}
	if int(sent) != len(payload) {
		t.Fatalf("sent %d bytes, want %d", sent, len(payload))
	}

	first := make([]byte, 9)
	second := make([]byte, 8)
	read, roflags, errno := local.SockRecv([][]byte{first, second}, 0)
	if errno != ErrnoSuccess {
		t.Fatalf("SockRecv failed: %v", errno)
	}
	if int(read) != len(payload) || roflags != 0 {
		t.Fatalf("SockRecv = (%d, %v), want (%d, 0)", read, roflags, len(payload))
	}
	got := append(append([]byte{}, first...), second...)
	if !bytes.Equal(got[:read], payload) {
		t.Errorf("received %q, want %q", got[:read], payload)
	}
}

func TestSockRecv_Peek(t *testing.T) {
	local, peer := socketPair(t)

	if _, errno := peer.SockSend([][]byte{[]byte("peekable")}, 0); errno != ErrnoSuccess {
		t.Fatalf("SockSend failed: %v", errno)
	}

	buf := make([]byte, 16)
	read, _, errno := local.SockRecv([][]byte{buf}, RiflagsRecvPeek)
	if errno != ErrnoSuccess || string(buf[:read]) != "peekable" {
		t.Fatalf("peek = (%q, %v)", buf[:read], errno)
	}

	// Peeking must not consume the data.
	read, _, errno = local.SockRecv([][]byte{buf}, 0)
	if errno != ErrnoSuccess || string(buf[:read]) != "peekable" {
		t.Errorf("read after peek = (%q, %v), want same data", buf[:read], errno)
	}
}

func TestSockRecv_UnknownFlags(t *testing.T) {
	local, _ := socketPair(t)

	if _, _, errno := local.SockRecv([][]byte{make([]byte, 4)}, Riflags(1<<7)); errno != ErrnoInval {
		t.Errorf("SockRecv with unknown flags = %v, want inval", errno)
	}
}

func TestSockRecv_DatagramTruncation(t *testing.T) {
	local, peer := datagramPair(t)

	if _, errno := peer.SockSend([][]byte{[]byte("longdatagram")}, 0); errno != ErrnoSuccess {
		t.Fatalf("SockSend failed: %v", errno)
	}

	buf := make([]byte, 4)
	read, roflags, errno := local.SockRecv([][]byte{buf}, 0)
	if errno != ErrnoSuccess {
		t.Fatalf("SockRecv failed: %v", errno)
	}
	if read != 4 || string(buf) != "long" {
		t.Errorf("truncated recv = (%q, %d)", buf[:read], read)
	}
	if roflags&RoflagsRecvDataTruncated == 0 {
		t.Error("truncation not reported in roflags")
	}
}

func TestSockShutdown(t *testing.T) {
	local, peer := socketPair(t)

	if errno := peer.SockShutdown(SdflagsWr); errno != ErrnoSuccess {
		t.Fatalf("SockShutdown failed: %v", errno)
	}

	// The peer's write side is closed, so the local read sees EOF.
	read, _, errno := local.SockRecv([][]byte{make([]byte, 4)}, 0)
	if errno != ErrnoSuccess || read != 0 {
		t.Errorf("recv after peer shutdown = (%d, %v), want (0, success)", read, errno)
	}

	if errno := local.SockShutdown(Sdflags(0)); errno != ErrnoInval {
		t.Errorf("SockShutdown with no direction = %v, want inval", errno)
	}
}

func TestSock_OnRegularFile(t *testing.T) {
	root := testFS(t, file("f", "x"))
	f := mustPathOpen(t, root, "f", 0, VFSFlagsRead)

	if _, _, errno := f.SockRecv([][]byte{make([]byte, 4)}, 0); errno != ErrnoNotSock {
		t.Errorf("SockRecv on file = %v, want notsock", errno)
	}
	if errno := f.SockShutdown(SdflagsRd); errno != ErrnoNotSock {
		t.Errorf("SockShutdown on file = %v, want notsock", errno)
	}
}

func TestSockAccept(t *testing.T) {
	fd, err := syscall.Socket(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socket failed: %v", err)
	}
	listener := inodeFromFd(t, fd)

	addr := &syscall.SockaddrUnix{Name: t.TempDir() + "/accept.sock"}
	if err := syscall.Bind(fd, addr); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if err := syscall.Listen(fd, 1); err != nil {
		t.Fatalf("listen failed: %v", err)
	}

	cfd, err := syscall.Socket(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("client socket failed: %v", err)
	}
	client := inodeFromFd(t, cfd)
	if err := syscall.Connect(cfd, addr); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	conn, errno := listener.SockAccept()
	if errno != ErrnoSuccess {
		t.Fatalf("SockAccept failed: %v", errno)
	}
	defer conn.Close()

	if _, errno := client.SockSend([][]byte{[]byte("hi")}, 0); errno != ErrnoSuccess {
		t.Fatalf("SockSend failed: %v", errno)
	}
	buf := make([]byte, 2)
	read, _, errno := conn.SockRecv([][]byte{buf}, 0)
	if errno != ErrnoSuccess || string(buf[:read]) != "hi" {
		t.Errorf("recv on accepted conn = (%q, %v)", buf[:read], errno)
	}
}
