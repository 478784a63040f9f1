package hardware

// spidev ioctl requests (linux/spi/spidev.h)
const (
	spiIocWrMode        = 0x40016B01 // _IOW(SPI_IOC_MAGIC, 1, __u8)
	spiIocWrBitsPerWord = 0x40016B03 // _IOW(SPI_IOC_MAGIC, 3, __u8)
	spiIocWrMaxSpeedHz  = 0x40046B04 // _IOW(SPI_IOC_MAGIC, 4, __u32)

	// WS2812 bit stream: each LED bit becomes 3 SPI bits at 2.4 MHz,
	// giving the 800 kHz cadence the strip expects.
	ws2812SpiSpeedHz = 2400000
	ws2812ResetBytes = 90 // > 280 us of zeros latches the strip
)

// I2C ioctl requests (linux/i2c-dev.h)
const (
	i2cSlave = 0x0703
)

// SSD1306 command set, the subset the display driver uses.
const (
	ssd1306SetContrast       = 0x81
	ssd1306DisplayFromRAM    = 0xA4
	ssd1306NormalDisplay     = 0xA6
	ssd1306DisplayOff        = 0xAE
	ssd1306DisplayOn         = 0xAF
	ssd1306SetMemoryMode     = 0x20
	ssd1306ColumnAddr        = 0x21
	ssd1306PageAddr          = 0x22
	ssd1306SetStartLine      = 0x40
	ssd1306SegRemap          = 0xA1
	ssd1306SetMultiplex      = 0xA8
	ssd1306ComScanDec        = 0xC8
	ssd1306SetDisplayOffset  = 0xD3
	ssd1306SetDisplayClock   = 0xD5
	ssd1306SetPrecharge      = 0xD9
	ssd1306SetComPins        = 0xDA
	ssd1306SetVcomDetect     = 0xDB
	ssd1306ChargePump        = 0x8D
)
