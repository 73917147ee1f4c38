package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

const redacted = "[REDACTED]"

var sensitiveFields = []string{
	"authorization",
	"apikey",
	"api_key",
	"token",
	"access_token",
	"service_key",
	"service_role_key",
	"jwt_secret",
	"password",
}

// redactHook blanks credential-bearing fields before an entry is written.
type redactHook struct{}

func (redactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (redactHook) Fire(entry *logrus.Entry) error {
	for key := range entry.Data {
		if isSensitive(key) {
			entry.Data[key] = redacted
		}
	}
	return nil
}

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveFields {
		if k == s {
			return true
		}
	}
	return false
}
