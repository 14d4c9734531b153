package utils

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging sends the standard logger to stderr and, when path is set, to
// a rotating log file as well. The returned closer is nil without a file.
func SetupLogging(path string) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if path == "" {
		log.SetOutput(os.Stderr)
		return nil
	}

	fileWriter := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, fileWriter))
	return fileWriter
}
