// Package logger provides structured logging on top of zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with map-based structured fields.
//
//	logging:
//	  level: "info"
//	  format: "json"
//
//	log := logger.WithComponent("conversations")
//	log.Info("conversation stored", logger.Fields(logger.FieldConversationID, 42))
package logger
