package main

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/AndreaSpaggiari/sito-andrea/internal/clock"
	"github.com/AndreaSpaggiari/sito-andrea/internal/config"
	"github.com/AndreaSpaggiari/sito-andrea/internal/migration"
	"github.com/AndreaSpaggiari/sito-andrea/internal/observability"
	"github.com/AndreaSpaggiari/sito-andrea/internal/server"
	"github.com/AndreaSpaggiari/sito-andrea/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

// registerSnowflake builds the process-wide ID generator. NODE_ID
// distinguishes instances when more than one replica runs.
func registerSnowflake() (*snowflake.Node, error) {
	nodeID := int64(1)
	if raw := os.Getenv("NODE_ID"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			nodeID = parsed
		}
	}
	return snowflake.NewNode(nodeID)
}
