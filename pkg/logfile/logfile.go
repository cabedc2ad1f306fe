package logfile

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// Hook mirrors log events into a plain-text file, without the colors and
// icons of the console output.
type Hook struct {
	file      *os.File
	formatter log.Formatter
}

// NewHook opens (or creates) the log file at path in append mode.
func NewHook(path string) (*Hook, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &Hook{
		file: file,
		formatter: &log.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		},
	}, nil
}

// Levels implements log.Hook. Debug chatter stays on the console only.
func (h *Hook) Levels() []log.Level {
	return []log.Level{
		log.PanicLevel, log.FatalLevel, log.ErrorLevel,
		log.WarnLevel, log.InfoLevel,
	}
}

// Fire implements log.Hook.
func (h *Hook) Fire(entry *log.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.file.Write(line)
	return err
}
