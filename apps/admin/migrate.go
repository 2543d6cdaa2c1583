package main

import (
	"database/sql"

	"github.com/trezcool/goose"

	appfs "github.com/trezcool/rors/fs"
	"github.com/trezcool/rors/storage/database"
)

// gooseRunFunc runs a goose command against the embedded migrations.
var gooseRunFunc = func(command string, db *sql.DB, args ...string) error { // mockable
	return goose.RunFS(command, db, appfs.FS, database.MigrationsDir, args...)
}

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(args[0], cli.db, args[1:]...)
}
