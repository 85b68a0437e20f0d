//go:build !tinygo && !linux

package hal

type spiPanel struct{ Panel }

func newSPIPanel(cfg SPIPanelConfig, logger Logger) (*spiPanel, error) {
	return nil, ErrNotImplemented
}

func (p *spiPanel) SetBacklight(on bool) {}
