package xcontext

import (
	"context"

	"github.com/pacelog/backend/config"
	"github.com/pacelog/backend/internal/model"
	"github.com/pacelog/backend/pkg/authenticator"
	"github.com/pacelog/backend/pkg/logger"
	"github.com/pacelog/backend/pkg/ws"
	"gorm.io/gorm"
)

type (
	dbKey           struct{}
	loggerKey       struct{}
	configsKey      struct{}
	userIDKey       struct{}
	tokenEngineKey  struct{}
	socketClientKey struct{}
)

func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

func DB(ctx context.Context) *gorm.DB {
	return ctx.Value(dbKey{}).(*gorm.DB)
}

// WithDBTransaction runs f with a transactional DB in the context. The
// transaction is committed if f returns nil, rolled back otherwise.
func WithDBTransaction(ctx context.Context, f func(context.Context) error) error {
	tx := DB(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := f(WithDB(ctx, tx)); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func WithLogger(ctx context.Context, l logger.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func Logger(ctx context.Context) logger.Logger {
	return ctx.Value(loggerKey{}).(logger.Logger)
}

func WithConfigs(ctx context.Context, cfg config.Configs) context.Context {
	return context.WithValue(ctx, configsKey{}, cfg)
}

func Configs(ctx context.Context) config.Configs {
	return ctx.Value(configsKey{}).(config.Configs)
}

func WithRequestUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

func RequestUserID(ctx context.Context) string {
	id := ctx.Value(userIDKey{})
	if id == nil {
		return ""
	}

	return id.(string)
}

func WithTokenEngine(ctx context.Context, engine authenticator.TokenEngine[model.AccessToken]) context.Context {
	return context.WithValue(ctx, tokenEngineKey{}, engine)
}

func TokenEngine(ctx context.Context) authenticator.TokenEngine[model.AccessToken] {
	return ctx.Value(tokenEngineKey{}).(authenticator.TokenEngine[model.AccessToken])
}

func WithSocketClient(ctx context.Context, client *ws.Client) context.Context {
	return context.WithValue(ctx, socketClientKey{}, client)
}

func SocketClient(ctx context.Context) *ws.Client {
	return ctx.Value(socketClientKey{}).(*ws.Client)
}
