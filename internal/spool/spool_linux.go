package spool

import "golang.org/x/sys/unix"

func openAnon(dir string) (int, error) {
	return unix.Open(dir, unix.O_TMPFILE|unix.O_RDWR|unix.O_EXCL|unix.O_CLOEXEC|unix.O_NOFOLLOW, 0o600)
}

// mapFile prefers a huge-page mapping and falls back to a regular private
// one: for multi-megabyte bodies huge pages cut TLB pressure measurably.
func mapFile(fd, size int) ([]byte, error) {
	buf, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_HUGETLB)
	if err == nil {
		return buf, nil
	}

	return unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE)
}
