// Package database carries the pieces shared by every concrete provider.
package database

import (
	"fmt"

	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/logger"
	"github.com/ctacke/DataNav/pkg/model"
)

// DatabaseLogger gives every provider the same shape for lifecycle log
// lines. All methods are safe on a nil receiver and on a nil logger, so
// providers call them unguarded.
type DatabaseLogger struct {
	logger *logger.Logger
}

func NewDatabaseLogger(log *logger.Logger) *DatabaseLogger {
	return &DatabaseLogger{logger: log}
}

// ConnectionAttempt logs the start of a dial.
func (dl *DatabaseLogger) ConnectionAttempt(id dbcapabilities.DatabaseID, info model.ConnectionInfo) {
	if dl == nil || dl.logger == nil {
		return
	}
	dl.logger.Debug("%s", formatConnectionMessage("Attempting connection", id, info))
}

// ConnectionEstablished logs a successful connect.
func (dl *DatabaseLogger) ConnectionEstablished(id dbcapabilities.DatabaseID, info model.ConnectionInfo) {
	if dl == nil || dl.logger == nil {
		return
	}
	dl.logger.Info("%s", formatConnectionMessage("Connection established", id, info))
}

// ConnectionFailed logs a failed connect. Providers absorb the failure, so
// the log line is the only trace it leaves.
func (dl *DatabaseLogger) ConnectionFailed(id dbcapabilities.DatabaseID, info model.ConnectionInfo, err error) {
	if dl == nil || dl.logger == nil {
		return
	}
	dl.logger.Error("%s: %v", formatConnectionMessage("Connection failed", id, info), err)
}

// Disconnected logs the release of a session.
func (dl *DatabaseLogger) Disconnected(id dbcapabilities.DatabaseID, info model.ConnectionInfo) {
	if dl == nil || dl.logger == nil {
		return
	}
	dl.logger.Debug("%s", formatConnectionMessage("Disconnected", id, info))
}

// OperationFailed logs a failed post-connect operation. The error still
// propagates to the caller; the log line adds the connection context the
// error value does not carry.
func (dl *DatabaseLogger) OperationFailed(id dbcapabilities.DatabaseID, info model.ConnectionInfo, operation string, err error) {
	if dl == nil || dl.logger == nil {
		return
	}
	dl.logger.Warn("[%s] Operation failed connection=%s operation=%s: %v", id, info.Name, operation, err)
}

func formatConnectionMessage(action string, id dbcapabilities.DatabaseID, info model.ConnectionInfo) string {
	base := fmt.Sprintf("[%s] %s connection=%s", id, action, info.Name)
	if info.Host != "" {
		if info.Port > 0 {
			base = fmt.Sprintf("%s host=%s:%d", base, info.Host, info.Port)
		} else {
			base = fmt.Sprintf("%s host=%s", base, info.Host)
		}
	}
	return base
}
