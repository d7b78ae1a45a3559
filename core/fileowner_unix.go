//go:build unix

package core

import (
	"os"
	"syscall"
)

// fileOwner reports the uid and gid recorded in info.
func fileOwner(info os.FileInfo) (uid, gid int, ok bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	return int(st.Uid), int(st.Gid), true
}
