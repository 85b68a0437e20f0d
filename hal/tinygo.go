//go:build tinygo && baremetal

package hal

import (
	"machine"
)

// Board wiring.
const (
	lcdWidth      = 240
	lcdHeight     = 320
	lcdSPIHz      = 20_000_000
	lcdLinesPerTx = 80

	lcdCS   = machine.GPIO5
	lcdDC   = machine.GPIO17
	lcdSCLK = machine.GPIO18
	lcdMOSI = machine.GPIO19
	lcdBL   = machine.GPIO4
	lcdRST  = machine.GPIO16

	sdMISO = machine.GPIO14
	sdMOSI = machine.GPIO27
	sdCLK  = machine.GPIO26
	sdCS   = machine.GPIO25

	uartBaud = 115200
)

type tinyGoHAL struct {
	logger    *uartLogger
	backlight *pinBacklight
	panel     *boardPanel
	serial    *uartSerial
	storage   *sdStorage
	bt        *softBluetooth
}

// New returns the ESP32 board HAL.
//
// UART0 at 115200 8N1 carries both the log and the keypad.
func New() (HAL, error) {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{BaudRate: uartBaud})

	bl := &pinBacklight{pin: lcdBL}
	bl.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	bl.pin.Low()

	logger := &uartLogger{uart: uart}
	panel, err := newBoardPanel(logger)
	if err != nil {
		return nil, err
	}

	return &tinyGoHAL{
		logger:    logger,
		backlight: bl,
		panel:     panel,
		serial:    &uartSerial{uart: uart},
		storage:   &sdStorage{},
		bt:        &softBluetooth{},
	}, nil
}

func (h *tinyGoHAL) Logger() Logger       { return h.logger }
func (h *tinyGoHAL) Backlight() Backlight { return h.backlight }
func (h *tinyGoHAL) Panel() Panel         { return h.panel }
func (h *tinyGoHAL) Serial() Serial       { return h.serial }
func (h *tinyGoHAL) Storage() Storage     { return h.storage }
func (h *tinyGoHAL) Bluetooth() Bluetooth { return h.bt }
