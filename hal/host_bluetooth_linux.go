//go:build !tinygo && linux

package hal

import (
	"fmt"
	"sort"
	"sync"

	"tinygo.org/x/bluetooth"
)

// bluezRadio scans through BlueZ while enabled and remembers the names it
// has seen. Adapter calls go over D-Bus and may block; they run under
// toggle only, so Enabled and Devices never wait on them.
type bluezRadio struct {
	adapter *bluetooth.Adapter
	logger  Logger

	toggle sync.Mutex

	mu      sync.Mutex
	ready   bool
	enabled bool
	// scanDone is closed when the running scan returns; nil when idle.
	scanDone chan struct{}
	seen     map[string]string
}

func newHostBluetooth(logger Logger) Bluetooth {
	return &bluezRadio{
		adapter: bluetooth.DefaultAdapter,
		logger:  logger,
		seen:    make(map[string]string),
	}
}

func (b *bluezRadio) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

func (b *bluezRadio) SetEnabled(on bool) error {
	b.toggle.Lock()
	defer b.toggle.Unlock()

	b.mu.Lock()
	if on == b.enabled {
		b.mu.Unlock()
		return nil
	}
	ready, done := b.ready, b.scanDone
	if !on {
		b.enabled = false
	}
	b.mu.Unlock()

	if !on {
		if done == nil {
			return nil
		}
		if err := b.adapter.StopScan(); err != nil {
			return fmt.Errorf("bluetooth: stop scan: %w", err)
		}
		// The next enable must not race the old scan's teardown.
		<-done
		return nil
	}

	if !ready {
		if err := b.adapter.Enable(); err != nil {
			return fmt.Errorf("bluetooth: enable adapter: %w", err)
		}
	}
	done = make(chan struct{})
	b.mu.Lock()
	b.ready = true
	b.enabled = true
	b.scanDone = done
	b.mu.Unlock()

	go b.scan(done)
	return nil
}

func (b *bluezRadio) scan(done chan struct{}) {
	defer close(done)

	err := b.adapter.Scan(func(_ *bluetooth.Adapter, res bluetooth.ScanResult) {
		name := res.LocalName()
		if name == "" {
			return
		}
		b.mu.Lock()
		b.seen[res.Address.String()] = name
		b.mu.Unlock()
	})
	if err != nil {
		b.logger.WriteLineString("bluetooth: scan: " + err.Error())
	}

	b.mu.Lock()
	if b.scanDone == done {
		b.scanDone = nil
	}
	b.mu.Unlock()
}

// Devices returns the sorted names seen since the radio was first enabled.
func (b *bluezRadio) Devices() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.seen))
	for _, name := range b.seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
