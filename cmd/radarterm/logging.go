package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	logDir      = "logs"
	logFileName = "radarterm.log"
	maxLogSize  = 10 * 1024 * 1024
)

// setupLogging routes the standard logger
// Without debug everything is discarded since the terminal belongs to the renderer
// With debug, logs append to logs/radarterm.log, rotated aside once it exceeds maxLogSize
func setupLogging(debug bool) *os.File {
	if !debug {
		log.SetOutput(io.Discard)
		return nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(io.Discard)
		return nil
	}

	logPath := filepath.Join(logDir, logFileName)
	if info, err := os.Stat(logPath); err == nil && info.Size() > maxLogSize {
		stem := strings.TrimSuffix(logFileName, filepath.Ext(logFileName))
		rotated := filepath.Join(logDir, fmt.Sprintf("%s-%s.log", stem, time.Now().Format("20060102-150405")))
		if err := os.Rename(logPath, rotated); err != nil {
			fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
		}
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.SetOutput(io.Discard)
		return nil
	}

	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("[main] logging started, pid %d", os.Getpid())
	return f
}
