package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	AppLogger   *logrus.Entry
	ErrorLogger *logrus.Logger

	logLevel    string
	appLogFile  *os.File
	runID       string
	initialized bool

	errorOutput io.Writer = os.Stderr
)

func parseLevel(level string) logrus.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return logrus.DebugLevel
	case "WARN", "WARNING":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// SetErrorOutput redirects ErrorLogger, which defaults to os.Stderr.
func SetErrorOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	errorOutput = w
	if ErrorLogger != nil {
		ErrorLogger.SetOutput(w)
	}
}

// InitGlobalLoggers opens the application log file and sets up the stderr
// error logger. If the log file cannot be opened, app records are discarded
// and the failure is reported on stderr; it never aborts the command.
func InitGlobalLoggers(appLogPath, level string) error {
	if initialized && appLogFile != nil && strings.ToUpper(level) == logLevel {
		return nil
	}
	if appLogFile != nil {
		appLogFile.Close()
		appLogFile = nil
	}

	logLevel = strings.ToUpper(level)
	if logLevel == "" {
		logLevel = "INFO"
	}
	if runID == "" {
		runID = uuid.NewString()
	}

	ErrorLogger = logrus.New()
	ErrorLogger.SetOutput(errorOutput)
	ErrorLogger.SetLevel(logrus.ErrorLevel)
	ErrorLogger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	actualAppLogPath := appLogPath
	var appLogWriter io.Writer = io.Discard
	if appLogPath == "" {
		actualAppLogPath = "(discarded)"
	} else if err := os.MkdirAll(filepath.Dir(appLogPath), 0750); err != nil {
		ErrorLogger.Errorf("Failed to create app log directory %s: %v. App logs will be discarded.", filepath.Dir(appLogPath), err)
		actualAppLogPath = "(discarded)"
	} else {
		f, err := os.OpenFile(appLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err != nil {
			ErrorLogger.Errorf("Failed to open app log file %s: %v. App logs will be discarded.", appLogPath, err)
			actualAppLogPath = "(discarded)"
		} else {
			appLogFile = f
			appLogWriter = f
		}
	}

	base := logrus.New()
	base.SetOutput(appLogWriter)
	base.SetLevel(parseLevel(logLevel))
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	AppLogger = base.WithField("run", runID)

	if !initialized {
		AppLogger.Infof("App logger initialized. Log level: %s. Output file: %s", logLevel, actualAppLogPath)
	}
	initialized = true
	return nil
}

// RunID identifies the current invocation in the log file.
func RunID() string {
	return runID
}

func Info(format string, v ...interface{}) {
	if AppLogger != nil {
		AppLogger.Infof(format, v...)
	}
}

func Debug(format string, v ...interface{}) {
	if AppLogger != nil {
		AppLogger.Debugf(format, v...)
	}
}

func Warn(format string, v ...interface{}) {
	if AppLogger != nil {
		AppLogger.Warnf(format, v...)
	}
}

// Error records message in the log file. Telling the user is left to the
// caller, so a failure is printed once.
func Error(format string, v ...interface{}) {
	if AppLogger != nil && appLogFile != nil {
		AppLogger.Errorf(format, v...)
	}
}

// Fatal records message, closes the log file and exits through ErrorLogger.
func Fatal(format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	Error("%s", message)
	CloseLogFiles()
	if ErrorLogger != nil {
		ErrorLogger.Fatal(message)
	} else {
		log.Fatal(message)
	}
}

func CloseLogFiles() {
	if appLogFile != nil {
		AppLogger.Debug("Closing app log file.")
		AppLogger.Logger.SetOutput(io.Discard)
		appLogFile.Close()
		appLogFile = nil
	}
	initialized = false
}
