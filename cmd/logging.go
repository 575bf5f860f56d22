package cmd

import (
	"path/filepath"
	"runtime"
	"strings"
)

// LogDestination says where the debug log is written
type LogDestination int

const (
	LogToFile LogDestination = iota
	LogToStderr
)

// determineLogDestination picks the log destination for goos. File paths are
// returned with a leading ~ for the home directory.
func determineLogDestination(goos string) (LogDestination, string) {
	switch goos {
	case "linux":
		return LogToFile, "~/" + cfgFilePath + "debug.log"
	case "darwin":
		return LogToFile, "~/Library/Logs/incmgr.log"
	default:
		return LogToStderr, ""
	}
}

// LogFile returns the debug log path for this platform under home, or false
// when the log should go to stderr
func LogFile(home string) (string, bool) {
	dest, path := determineLogDestination(runtime.GOOS)
	if dest != LogToFile {
		return "", false
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), true
}
