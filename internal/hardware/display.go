package hardware

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"shiftlight-service/internal/logger"
)

// Ssd1306 drives a monochrome OLED over an i2c-dev device. The framebuffer
// is pushed page by page in one Show call.
type Ssd1306 struct {
	fd     int
	width  int
	height int
	buf    []byte // page-major framebuffer, 1 bpp
	lock   sync.Mutex
	log    *logger.Logger
}

func NewSsd1306(device string, addr, width, height int, log *logger.Logger) (*Ssd1306, error) {
	fd, err := unix.Open(device, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C device %s: %w", device, err)
	}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), i2cSlave, uintptr(addr)); errno != 0 {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to select I2C address %#x: %w", addr, errno)
	}

	d := &Ssd1306{
		fd:     fd,
		width:  width,
		height: height,
		buf:    make([]byte, width*height/8),
		log:    log.WithTag("ssd1306"),
	}

	if err := d.initSequence(); err != nil {
		unix.Close(fd)
		return nil, err
	}

	d.log.Infof("Initialized %dx%d display at %s addr %#x", width, height, device, addr)
	return d, nil
}

func (d *Ssd1306) initSequence() error {
	cmds := []byte{
		ssd1306DisplayOff,
		ssd1306SetDisplayClock, 0x80,
		ssd1306SetMultiplex, byte(d.height - 1),
		ssd1306SetDisplayOffset, 0x00,
		ssd1306SetStartLine | 0x00,
		ssd1306ChargePump, 0x14,
		ssd1306SetMemoryMode, 0x00, // horizontal addressing
		ssd1306SegRemap,
		ssd1306ComScanDec,
		ssd1306SetComPins, 0x12,
		ssd1306SetContrast, 0xCF,
		ssd1306SetPrecharge, 0xF1,
		ssd1306SetVcomDetect, 0x40,
		ssd1306DisplayFromRAM,
		ssd1306NormalDisplay,
		ssd1306DisplayOn,
	}
	for _, c := range cmds {
		if err := d.writeCommand(c); err != nil {
			return fmt.Errorf("display init failed: %w", err)
		}
	}
	return nil
}

func (d *Ssd1306) writeCommand(c byte) error {
	// Control byte 0x00: command follows.
	_, err := unix.Write(d.fd, []byte{0x00, c})
	return err
}

func (d *Ssd1306) Size() (int, int) {
	return d.width, d.height
}

func (d *Ssd1306) Clear() {
	d.lock.Lock()
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.lock.Unlock()
}

func (d *Ssd1306) SetPixel(x, y int, on bool) {
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return
	}
	d.lock.Lock()
	idx := x + (y/8)*d.width
	bit := byte(1 << (y % 8))
	if on {
		d.buf[idx] |= bit
	} else {
		d.buf[idx] &^= bit
	}
	d.lock.Unlock()
}

// Show pushes the whole framebuffer. The window is reset first so partial
// earlier transfers cannot skew addressing.
func (d *Ssd1306) Show() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	window := []byte{
		ssd1306ColumnAddr, 0, byte(d.width - 1),
		ssd1306PageAddr, 0, byte(d.height/8 - 1),
	}
	for i := 0; i < len(window); i += 3 {
		for _, c := range window[i : i+3] {
			if err := d.writeCommand(c); err != nil {
				return fmt.Errorf("display window set failed: %w", err)
			}
		}
	}

	// Control byte 0x40: data stream follows.
	msg := make([]byte, 1+len(d.buf))
	msg[0] = 0x40
	copy(msg[1:], d.buf)
	if _, err := unix.Write(d.fd, msg); err != nil {
		return fmt.Errorf("display data write failed: %w", err)
	}
	return nil
}

func (d *Ssd1306) Close() {
	d.Clear()
	if err := d.Show(); err != nil {
		d.log.Warnf("Failed to blank display on close: %v", err)
	}
	if err := d.writeCommand(ssd1306DisplayOff); err != nil {
		d.log.Warnf("Failed to power down display: %v", err)
	}
	unix.Close(d.fd)
	d.log.Infof("Closed I2C device")
}
