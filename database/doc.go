// Package database provides the GORM connection used by the conversation and
// account stores: driver selection (postgres or sqlite), connection retries,
// pool settings, a logger adapter and error translation to AppError.
//
//	db := database.NewComponent(cfg.Database, log).WithAutoMigrate(&conversation.Record{})
//	registry.Register(db)
//
// Versioned SQL migrations live in the migration subpackage.
package database
