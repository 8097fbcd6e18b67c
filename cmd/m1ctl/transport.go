package main

import (
	"fmt"

	"m1boot/internal/hostserial"
)

func openPort() (*hostserial.Port, error) {
	port, err := hostserial.Open(cfg.Port, cfg.Baud)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Port, err)
	}
	return port, nil
}
