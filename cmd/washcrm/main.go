package main

import (
	"github.com/smallbiznis/washcrm/internal/config"
	"github.com/smallbiznis/washcrm/internal/migration"
	"github.com/smallbiznis/washcrm/internal/observability"
	"github.com/smallbiznis/washcrm/internal/seed"
	"github.com/smallbiznis/washcrm/internal/server"
	"github.com/smallbiznis/washcrm/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		db.Module,
		migration.Module,
		server.Module,
		seed.Module,
	)
	app.Run()
}
