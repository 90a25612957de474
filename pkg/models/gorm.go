package models

// ModelsToAutoMigrate returns the models whose tables are created on connect.
func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&SyncRun{},
	}
}
