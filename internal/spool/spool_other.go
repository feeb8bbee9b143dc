//go:build !linux

package spool

import "golang.org/x/sys/unix"

func openAnon(string) (int, error) {
	return -1, unix.ENOTSUP
}

func mapFile(fd, size int) ([]byte, error) {
	return unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE)
}
