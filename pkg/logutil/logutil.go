// Package logutil provides logging utilities.
package logutil

import (
	"io"
	"log"
	"os"
	"sync"
)

var (
	out = io.Discard
	// Set when out was opened by SetOutputFile.
	current *os.File
	loggers []*log.Logger
	mutex   sync.Mutex
)

// GetLogger gets a logger with a prefix. All loggers share the same output,
// which is discarded until SetOutput or SetOutputFile is called.
func GetLogger(prefix string) *log.Logger {
	mutex.Lock()
	defer mutex.Unlock()
	logger := log.New(out, prefix, log.LstdFlags)
	loggers = append(loggers, logger)
	return logger
}

// SetOutput redirects the output of all loggers obtained with GetLogger to
// the new io.Writer. If the old output was a file opened by SetOutputFile, it
// is closed.
func SetOutput(newout io.Writer) {
	mutex.Lock()
	defer mutex.Unlock()
	if current != nil {
		current.Close()
		current = nil
	}
	setOutput(newout)
}

// SetOutputFile redirects the output of all loggers obtained with GetLogger to
// the named file, which is opened for appending. If the name is empty, log
// outputs are discarded.
func SetOutputFile(fname string) error {
	if fname == "" {
		SetOutput(io.Discard)
		return nil
	}
	file, err := os.OpenFile(fname, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	mutex.Lock()
	defer mutex.Unlock()
	if current != nil {
		current.Close()
	}
	current = file
	setOutput(file)
	return nil
}

func setOutput(newout io.Writer) {
	out = newout
	for _, logger := range loggers {
		logger.SetOutput(out)
	}
}
