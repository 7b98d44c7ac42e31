package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/roomledger/roomledger/internal/clock"
	"github.com/roomledger/roomledger/internal/config"
	"github.com/roomledger/roomledger/internal/migration"
	"github.com/roomledger/roomledger/internal/observability"
	"github.com/roomledger/roomledger/internal/server"
	"github.com/roomledger/roomledger/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
