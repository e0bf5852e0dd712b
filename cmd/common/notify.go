package common

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// Notify shows a desktop notification. Failures are only logged; headless
// machines have no notification daemon.
func Notify(title, message string) {
	if err := beeep.Notify(title, message, ""); err != nil {
		slog.Debug("desktop notification failed", "err", err)
	}
}
