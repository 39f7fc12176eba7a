package util

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/antaressimulatorteam/antares-web-installer/formatter"
)

// LogConsole is the log path value that keeps logs on stdout only.
const LogConsole = "console"

// InitLog parses and sets log-level input. When logPath is a file, entries
// go to stdout and to a rotated log file.
func InitLog(logLevel string, logPath string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		log.Errorf("Failed parsing log-level %s: %s", logLevel, err)
		return err
	}

	var out io.Writer = os.Stdout
	if logPath != "" && logPath != LogConsole {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return err
		}
		lumberjackLogger := &lumberjack.Logger{
			// Log file absolute path, os agnostic
			Filename:   filepath.ToSlash(logPath),
			MaxSize:    5, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, lumberjackLogger)
	}

	logger := log.StandardLogger()
	logger.SetOutput(out)
	// InitLog may run more than once.
	logger.ReplaceHooks(make(log.LevelHooks))
	formatter.SetTextFormatter(logger, level >= log.DebugLevel)
	logger.SetLevel(level)
	return nil
}
