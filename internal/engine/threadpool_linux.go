//go:build linux

package engine

import "golang.org/x/sys/unix"

// affinityCPUCount reads the calling process's scheduling affinity
// set, which on a cgroup-limited container host is smaller than
// runtime.NumCPU's view of the machine's total cores.
func affinityCPUCount() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return 0
	}
	return set.Count()
}
