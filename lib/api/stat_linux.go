//go:build linux

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
	m.Permissions = st.Mode
	if st.Atim.Sec > 0 {
		m.Accessed = uint64(st.Atim.Sec)
	}
	// Linux exposes no birth time through Stat_t; Created stays zero.
}
