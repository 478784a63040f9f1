package hardware

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"shiftlight-service/internal/logger"
	"shiftlight-service/internal/types"
)

// Ws2812Ring drives a WS2812 LED strip through a spidev device. The strip's
// single-wire protocol is bit-banged over SPI: a 1-bit becomes 0b110, a
// 0-bit 0b100, clocked at 2.4 MHz.
type Ws2812Ring struct {
	fd     int
	count  int
	pixels []types.Color
	txBuf  []byte
	lock   sync.Mutex
	log    *logger.Logger
}

func NewWs2812Ring(device string, count int, log *logger.Logger) (*Ws2812Ring, error) {
	fd, err := unix.Open(device, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI device %s: %w", device, err)
	}

	r := &Ws2812Ring{
		fd:     fd,
		count:  count,
		pixels: make([]types.Color, count),
		txBuf:  make([]byte, count*9+ws2812ResetBytes),
		log:    log.WithTag("ws2812"),
	}

	if err := r.configure(); err != nil {
		unix.Close(fd)
		return nil, err
	}

	r.log.Infof("Opened %s for %d pixels", device, count)
	return r, nil
}

func (r *Ws2812Ring) configure() error {
	mode := uint8(0)
	if err := ioctlPtr(r.fd, spiIocWrMode, unsafe.Pointer(&mode)); err != nil {
		return fmt.Errorf("failed to set SPI mode: %w", err)
	}
	bits := uint8(8)
	if err := ioctlPtr(r.fd, spiIocWrBitsPerWord, unsafe.Pointer(&bits)); err != nil {
		return fmt.Errorf("failed to set SPI word size: %w", err)
	}
	speed := uint32(ws2812SpiSpeedHz)
	if err := ioctlPtr(r.fd, spiIocWrMaxSpeedHz, unsafe.Pointer(&speed)); err != nil {
		return fmt.Errorf("failed to set SPI speed: %w", err)
	}
	return nil
}

func (r *Ws2812Ring) Len() int {
	return r.count
}

func (r *Ws2812Ring) Set(i int, c types.Color) {
	if i < 0 || i >= r.count {
		return
	}
	r.lock.Lock()
	r.pixels[i] = c
	r.lock.Unlock()
}

// Show encodes the pixel buffer and writes it out, followed by the reset
// latch. Bounded-latency: one write of a few hundred bytes.
func (r *Ws2812Ring) Show() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	pos := 0
	for _, p := range r.pixels {
		// WS2812 wants GRB order.
		for _, b := range [3]uint8{p.G, p.R, p.B} {
			pos += encodeByte(r.txBuf[pos:], b)
		}
	}
	for i := 0; i < ws2812ResetBytes; i++ {
		r.txBuf[pos] = 0
		pos++
	}

	if _, err := unix.Write(r.fd, r.txBuf[:pos]); err != nil {
		return fmt.Errorf("SPI write failed: %w", err)
	}
	return nil
}

// encodeByte expands one color byte into 3 SPI bytes (3 SPI bits per LED
// bit) and returns how many bytes it wrote.
func encodeByte(dst []byte, b uint8) int {
	var bits uint32
	for i := 7; i >= 0; i-- {
		bits <<= 3
		if b&(1<<i) != 0 {
			bits |= 0b110
		} else {
			bits |= 0b100
		}
	}
	dst[0] = byte(bits >> 16)
	dst[1] = byte(bits >> 8)
	dst[2] = byte(bits)
	return 3
}

func (r *Ws2812Ring) Close() {
	// Leave the strip dark.
	r.lock.Lock()
	for i := range r.pixels {
		r.pixels[i] = types.Color{}
	}
	r.lock.Unlock()
	if err := r.Show(); err != nil {
		r.log.Warnf("Failed to blank strip on close: %v", err)
	}

	r.lock.Lock()
	unix.Close(r.fd)
	r.lock.Unlock()
	r.log.Infof("Closed SPI device")
}

func ioctlPtr(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
