package common

import "github.com/dustin/go-humanize"

// Progress renders a short "<done>/<total> (<percent>)" string for log
// lines emitted at batch checkpoints, e.g. "12,482/50,000 (24.96%)".
func Progress(done, total int64) string {
	if total <= 0 {
		return humanize.Comma(done)
	}
	pct := float64(done) / float64(total) * 100
	return humanize.Comma(done) + "/" + humanize.Comma(total) + " (" + humanize.FormatFloat("#.##", pct) + "%)"
}

// Bytes renders a byte count in human units, e.g. for reporting how much
// thumbnail data the first loop has written so far.
func Bytes(n uint64) string {
	return humanize.Bytes(n)
}
