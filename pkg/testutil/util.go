package testutil

import (
	"context"
	"time"

	"github.com/pacelog/backend/config"
	"github.com/pacelog/backend/internal/model"
	"github.com/pacelog/backend/migration"
	"github.com/pacelog/backend/pkg/authenticator"
	"github.com/pacelog/backend/pkg/logger"
	"github.com/pacelog/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	cfg := config.Configs{
		ApiServer: config.ServerConfigs{
			DefaultLimit: 1,
			MaxLimit:     50,
		},
		Auth: config.AuthConfigs{
			TokenSecret: "secret",
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: time.Minute,
			},
		},
		Follow: config.FollowConfigs{
			MaxFollowing:   100,
			DailyLimit:     20,
			MaxLookupBatch: 10,
		},
		Notification: config.NotificationConfigs{
			DedupeWindow:      time.Minute,
			PendingBatchLimit: 10,
			MaxPageSize:       50,
			FanoutChannel:     "notifications",
		},
		Socket: config.SocketConfigs{
			MaxConnectionsPerUser: 2,
			PingPeriod:            time.Second,
			PongTimeout:           3 * time.Second,
			RegistryTTL:           5 * time.Second,
			SuppressionTTL:        time.Minute,
		},
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.SILENCE))
	ctx = xcontext.WithTokenEngine(ctx, authenticator.NewTokenEngine[model.AccessToken](cfg.Auth))
	ctx = xcontext.WithDB(ctx, db)

	if err := migration.MigrateTable(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func MockContextWithUserID(userID string) context.Context {
	return xcontext.WithRequestUserID(MockContext(), userID)
}
