//go:build !linux && !darwin

package api

import "os"

// Only the portable FileInfo fields are available here; owner, group and
// the extra timestamps stay zero.
func fillStat(m *EntryMetadata, info os.FileInfo) {}
