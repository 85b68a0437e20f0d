//go:build !tinygo && !linux

package hal

func newHostBluetooth(Logger) Bluetooth { return &softBluetooth{} }
