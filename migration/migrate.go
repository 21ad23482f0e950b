package migration

import (
	"context"

	"github.com/pacelog/backend/internal/entity"
	"github.com/pacelog/backend/pkg/xcontext"
)

func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&entity.User{},
		&entity.FollowEdge{},
		&entity.FollowCounter{},
		&entity.Notification{},
	)
}
