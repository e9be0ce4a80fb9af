// Package database persists application state in a local SQLite file.
//
// The Kobo content database is never written; this is the application's own
// store, holding two tables:
//
//	settings         key/value overrides (export config, auto-sync, last import)
//	import_sessions  one row per import run, see the sessions sub-package
//
// # Usage
//
//	db, err := database.NewDatabase(cfg.Database.Path)
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	err = db.SetSetting(entities.SettingKeyAutoSyncEnabled, "true")
//	recent, err := db.Sessions().Recent(20)
package database
