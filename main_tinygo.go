//go:build tinygo

package main

import (
	"beatbyte/app"
	"beatbyte/hal"
)

func main() {
	h, err := hal.New()
	if err != nil {
		println("hal init failed:", err.Error())
		select {}
	}
	app.Run(h)
}
