// Package netio provides the datagram ingress for the scheduler loop.
package netio

import (
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"shiftlight-service/internal/logger"
)

const maxDatagramSize = 2048

// UDPSource is one bound telemetry port. Drain never blocks: the socket is
// read with MSG_DONTWAIT until it reports empty, so the scheduler's tick
// budget holds no matter how fast the game sends.
type UDPSource struct {
	conn *net.UDPConn
	raw  syscall.RawConn
	buf  []byte
	port int
	log  *logger.Logger
}

func ListenUDP(bindAddress string, port int, log *logger.Logger) (*UDPSource, error) {
	addr := &net.UDPAddr{IP: net.ParseIP(bindAddress), Port: port}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind UDP port %d: %w", port, err)
	}
	raw, err := conn.SyscallConn()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to access raw socket: %w", err)
	}

	l := log.WithTag("udp")
	l.Infof("Listening for telemetry on port %d", port)
	return &UDPSource{
		conn: conn,
		raw:  raw,
		buf:  make([]byte, maxDatagramSize),
		port: port,
		log:  l,
	}, nil
}

// Drain hands every currently queued datagram to handle and returns the
// count. Datagrams are passed in arrival order; the handler must not keep
// a reference to the slice past its return.
func (s *UDPSource) Drain(handle func(raw []byte)) (int, error) {
	var handled int
	var readErr error

	err := s.raw.Read(func(fd uintptr) bool {
		for {
			n, _, err := unix.Recvfrom(int(fd), s.buf, unix.MSG_DONTWAIT)
			if err != nil {
				if err != unix.EAGAIN && err != unix.EWOULDBLOCK && err != unix.EINTR {
					readErr = err
				}
				// Empty (or errored): done either way, never park the loop.
				return true
			}
			if n > 0 {
				handle(s.buf[:n])
				handled++
			}
		}
	})
	if err != nil {
		return handled, fmt.Errorf("raw read failed on port %d: %w", s.port, err)
	}
	if readErr != nil {
		return handled, fmt.Errorf("recvfrom failed on port %d: %w", s.port, readErr)
	}
	return handled, nil
}

func (s *UDPSource) Port() int {
	return s.port
}

func (s *UDPSource) Close() error {
	s.log.Infof("Closing port %d", s.port)
	return s.conn.Close()
}
