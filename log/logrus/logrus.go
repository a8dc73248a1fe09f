package logrus

import (
	contenttypes "github.com/aramtech/rfid-content-types"
	"github.com/sirupsen/logrus"
)

type LogrusLogger struct{ E *logrus.Entry }

func (l LogrusLogger) Debug(msg string, f contenttypes.Fields) {
	l.E.WithFields(logrus.Fields(f)).Debug(msg)
}
func (l LogrusLogger) Info(msg string, f contenttypes.Fields) {
	l.E.WithFields(logrus.Fields(f)).Info(msg)
}
func (l LogrusLogger) Warn(msg string, f contenttypes.Fields) {
	l.E.WithFields(logrus.Fields(f)).Warn(msg)
}
func (l LogrusLogger) Error(msg string, f contenttypes.Fields) {
	l.E.WithFields(logrus.Fields(f)).Error(msg)
}
