package testutil

import (
	"context"

	"github.com/pacelog/backend/internal/entity"
	"github.com/pacelog/backend/internal/repository"
)

var (
	User1 = entity.User{
		Base:      entity.Base{ID: "user1"},
		Name:      "user1",
		AvatarURL: "https://example.com/avatars/user1.png",
	}

	User2 = entity.User{
		Base: entity.Base{ID: "user2"},
		Name: "user2",
	}

	User3 = entity.User{
		Base:      entity.Base{ID: "user3"},
		Name:      "user3",
		IsPrivate: true,
	}
)

// CreateFixtureDb seeds the in-memory database of the context with the
// sample users.
func CreateFixtureDb(ctx context.Context) {
	InsertUsers(ctx)
}

func InsertUsers(ctx context.Context) {
	userRepo := repository.NewUserRepository()

	for _, user := range []entity.User{User1, User2, User3} {
		u := user
		if err := userRepo.Create(ctx, &u); err != nil {
			panic(err)
		}
	}
}
