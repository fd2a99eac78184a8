//go:build darwin

package api

import (
	"os"
	"syscall"
)

func fillStat(m *EntryMetadata, info os.FileInfo) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	m.UID = st.Uid
	m.GID = st.Gid
	m.Permissions = uint32(st.Mode)
	if st.Atimespec.Sec > 0 {
		m.Accessed = uint64(st.Atimespec.Sec)
	}
	if st.Birthtimespec.Sec > 0 {
		m.Created = uint64(st.Birthtimespec.Sec)
	}
}
