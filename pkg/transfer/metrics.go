package transfer

import (
	"fmt"
	"strings"
	"time"
)

// FormatBytes converts bytes to a human-readable string
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats a duration to a human-readable string
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// Report renders a staging report
func (s *StageResult) Report() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `
Staging Report
==============
Duration:          %s
Uploads:           %d
Landed:            %d
Failed:            %d
Data Transferred:  %s

`,
		FormatDuration(s.Duration),
		len(s.Uploads),
		len(s.LandedKeys()),
		len(s.Failed()),
		FormatBytes(s.TotalBytes()),
	)

	for _, u := range s.Uploads {
		status := "ok"
		if !u.Success {
			status = "FAILED"
			if u.Err != nil {
				status += ": " + u.Err.Error()
			}
		}
		fmt.Fprintf(&sb, "- %-16s %-36s %6d rows %10s  %s\n",
			u.Table, u.Key, u.Rows, FormatBytes(u.Bytes), status)
	}

	return sb.String()
}
