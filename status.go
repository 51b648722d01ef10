package txbench

import (
	"time"

	"github.com/hhkbp2/go-strftime"
)

const statusTimeFormat = "%Y-%m-%d %H:%M:%S"

// Statusf prints one timestamped progress line.
func Statusf(format string, args ...interface{}) {
	stamp := strftime.Format(statusTimeFormat, time.Now())
	Printf(stamp+" "+format, args...)
}
