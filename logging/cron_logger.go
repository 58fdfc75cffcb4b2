package logging

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

type CronLogger struct {
	// Implements gocron.Logger
}

// gocron passes key/value pairs rather than format args
func cronFields(args []any) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(args); i += 2 {
		fields[fmt.Sprint(args[i])] = args[i+1]
	}
	if len(args)%2 == 1 {
		fields["extra"] = args[len(args)-1]
	}
	return fields
}

func (c *CronLogger) Debug(msg string, args ...any) {
	logrus.WithField("component", "cron").WithFields(cronFields(args)).Debug(msg)
}

func (c *CronLogger) Error(msg string, args ...any) {
	logrus.WithField("component", "cron").WithFields(cronFields(args)).Error(msg)
}

func (c *CronLogger) Info(msg string, args ...any) {
	logrus.WithField("component", "cron").WithFields(cronFields(args)).Info(msg)
}

func (c *CronLogger) Warn(msg string, args ...any) {
	logrus.WithField("component", "cron").WithFields(cronFields(args)).Warn(msg)
}
