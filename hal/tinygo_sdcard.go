//go:build tinygo && baremetal

package hal

import (
	"errors"
	"io"
	"machine"
	"os"

	"tinygo.org/x/drivers/sdcard"
	"tinygo.org/x/tinyfs/fatfs"
)

var errSDNotReady = errors.New("sd: not ready")

type sdStorage struct {
	sd  sdcard.Device
	fat *fatfs.FATFS
}

func (s *sdStorage) Mount() error {
	s.sd = sdcard.New(machine.SPI2, sdCLK, sdMOSI, sdMISO, sdCS)
	if err := s.sd.Configure(); err != nil {
		return errors.New("sd: configure: " + err.Error())
	}
	fat := fatfs.New(&s.sd).Configure(&fatfs.Config{SectorSize: fatfs.SectorSize})
	if err := fat.Mount(); err != nil {
		// Do not auto-format removable media.
		return errors.New("sd: mount: " + err.Error())
	}
	s.fat = fat
	return nil
}

func (s *sdStorage) Open(name string) (io.ReadCloser, error) {
	if s.fat == nil {
		return nil, errSDNotReady
	}
	f, err := s.fat.OpenFile(name, os.O_RDONLY)
	if err != nil {
		return nil, err
	}
	return f, nil
}
