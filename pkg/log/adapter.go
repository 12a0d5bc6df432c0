package log

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// BadgerLogrusAdapter implements badger.Logger on top of a logrus Entry.
// Badger's routine Info chatter (compactions, value log GC) is demoted to Debug.
type BadgerLogrusAdapter struct {
	*logrus.Entry
}

// NewBadgerLogrusAdapter creates a new adapter tagged with component=badger
func NewBadgerLogrusAdapter(entry *logrus.Entry) *BadgerLogrusAdapter {
	return &BadgerLogrusAdapter{entry.WithField("component", "badger")}
}

// Errorf logs at error level
func (l *BadgerLogrusAdapter) Errorf(f string, v ...interface{}) {
	l.Entry.Errorf(strings.TrimSpace(f), v...)
}

// Warningf logs at warn level
func (l *BadgerLogrusAdapter) Warningf(f string, v ...interface{}) {
	l.Entry.Warnf(strings.TrimSpace(f), v...)
}

// Infof logs at debug level
func (l *BadgerLogrusAdapter) Infof(f string, v ...interface{}) {
	l.Entry.Debugf(strings.TrimSpace(f), v...)
}

// Debugf logs at trace level
func (l *BadgerLogrusAdapter) Debugf(f string, v ...interface{}) {
	l.Entry.Tracef(strings.TrimSpace(f), v...)
}
