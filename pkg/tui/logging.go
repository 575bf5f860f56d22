package tui

import "github.com/charmbracelet/log"

// debug logs msg at debug level with a "tui." prefix
func debug(msg string, keyvals ...interface{}) {
	log.Debug("tui."+msg, keyvals...)
}
