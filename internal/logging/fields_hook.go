package logging

import (
	"github.com/sirupsen/logrus"
)

// DefaultFieldsHook stamps every entry with fixed fields, e.g. service and env.
// Fields already set on the entry win.
type DefaultFieldsHook struct {
	fields logrus.Fields
}

func NewDefaultFieldsHook(fields logrus.Fields) *DefaultFieldsHook {
	nonEmpty := make(logrus.Fields, len(fields))
	for k, v := range fields {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		nonEmpty[k] = v
	}
	return &DefaultFieldsHook{fields: nonEmpty}
}

func (h *DefaultFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *DefaultFieldsHook) Fire(entry *logrus.Entry) error {
	for k, v := range h.fields {
		if _, ok := entry.Data[k]; !ok {
			entry.Data[k] = v
		}
	}
	return nil
}
