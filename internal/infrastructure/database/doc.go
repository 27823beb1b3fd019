// Package database opens the SQLite database that backs the message journal
// and applies its schema migrations.
//
// Migrations are YYYYMMDD_HHMMSS_name.up.sql files (with optional
// .down.sql counterparts) at the root of an fs.FS, normally the embedded
// migrations package:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// The pool holds a single connection. WAL mode and a busy timeout are
// configured through the connection string.
package database
