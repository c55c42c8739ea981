package main

import (
	"fmt"

	"github.com/trezcool/darasa/storage/database"
)

// mockable
var (
	migrateUpFunc   = database.Migrate
	migrateDownFunc = database.Rollback
)

func (cli *commandLine) migrate(direction string) error {
	switch direction {
	case "up":
		return migrateUpFunc(cli.db)
	case "down":
		return migrateDownFunc(cli.db)
	default:
		return fmt.Errorf("%q: no such migrate direction", direction)
	}
}
