//go:build !linux

package driver

import "errors"

func systemMemory() (total, free uint64, err error) {
	return 0, 0, errors.New("system memory is only read on linux")
}
