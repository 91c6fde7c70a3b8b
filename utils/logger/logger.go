// Package logger is a thin logrus wrapper that prefixes every message with the
// name of the object that produced it. Writes are synchronous.
package logger

import (
	"fmt"
	"io"
	"reflect"

	"github.com/sirupsen/logrus"
)

type stringer interface {
	String() string
}

const objWidth = 20

func objToString(obj any) (objStr string) {
	if obj == nil {
		objStr = "NIL"
	} else if stringerObj, ok := obj.(stringer); ok {
		objStr = stringerObj.String()
	} else if objStr, ok = obj.(string); ok {
	} else {
		t := reflect.TypeOf(obj)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		objStr = t.Name()
	}
	if len(objStr) > objWidth {
		objStr = objStr[:objWidth]
	}
	return
}

func line(obj any, msg string) string {
	return fmt.Sprintf("|%20s|%-100s", objToString(obj), msg)
}

// Init sets the level and the text formatter on the standard logger.
func Init(lvl logrus.Level) {
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		PadLevelText:    true,
		TimestampFormat: "2006/02/01 15:04:05",
	})
}

// SetOutput redirects the standard logger.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

func Trace(object any, message string) {
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		logrus.Trace(line(object, message))
	}
}

func Tracef(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		logrus.Trace(line(object, fmt.Sprintf(message, args...)))
	}
}

func Debug(object any, message string) {
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		logrus.Debug(line(object, message))
	}
}

func Debugf(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		logrus.Debug(line(object, fmt.Sprintf(message, args...)))
	}
}

func Info(object any, message string) {
	if logrus.IsLevelEnabled(logrus.InfoLevel) {
		logrus.Info(line(object, message))
	}
}

func Infof(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.InfoLevel) {
		logrus.Info(line(object, fmt.Sprintf(message, args...)))
	}
}

func Warning(object any, message string) {
	if logrus.IsLevelEnabled(logrus.WarnLevel) {
		logrus.Warning(line(object, message))
	}
}

func Warningf(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.WarnLevel) {
		logrus.Warning(line(object, fmt.Sprintf(message, args...)))
	}
}

func Error(object any, message string) {
	if logrus.IsLevelEnabled(logrus.ErrorLevel) {
		logrus.Error(line(object, message))
	}
}

func Errorf(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.ErrorLevel) {
		logrus.Error(line(object, fmt.Sprintf(message, args...)))
	}
}

func Fatal(object any, message string) {
	logrus.Fatal(line(object, message))
}

func Fatalf(object any, message string, args ...any) {
	logrus.Fatal(line(object, fmt.Sprintf(message, args...)))
}
