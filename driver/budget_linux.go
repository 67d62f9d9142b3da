//go:build linux

package driver

import "golang.org/x/sys/unix"

func systemMemory() (total, free uint64, err error) {
	var info unix.Sysinfo_t
	if err = unix.Sysinfo(&info); err != nil {
		return 0, 0, err
	}
	unit := uint64(info.Unit)
	return uint64(info.Totalram) * unit, (uint64(info.Freeram) + uint64(info.Bufferram)) * unit, nil
}
