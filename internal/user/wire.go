//go:build wireinject
// +build wireinject

package user

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	itemdomain "github.com/shelfwatch/shelfwatch/internal/item/domain"
	itemrepository "github.com/shelfwatch/shelfwatch/internal/item/repository"
	"github.com/shelfwatch/shelfwatch/internal/user/delivery/http"
	"github.com/shelfwatch/shelfwatch/internal/user/domain"
	"github.com/shelfwatch/shelfwatch/internal/user/repository"
	"github.com/shelfwatch/shelfwatch/internal/user/usecase/command"
	"github.com/shelfwatch/shelfwatch/internal/user/usecase/query"
)

// ProvideUserRepository provides the user repository
func ProvideUserRepository(db *gorm.DB) domain.UserRepository {
	return repository.NewGormUserRepository(db)
}

// ProvideItemRepository provides the item repository, needed to check
// ownership before user deletion
func ProvideItemRepository(db *gorm.DB) itemdomain.ItemRepository {
	return itemrepository.NewGormItemRepository(db)
}

// Command Handlers Providers
func ProvideRegisterUserHandler(repo domain.UserRepository) *command.RegisterUserHandler {
	return command.NewRegisterUserHandler(repo)
}

func ProvideLoginUserHandler(repo domain.UserRepository) *command.LoginUserHandler {
	return command.NewLoginUserHandler(repo)
}

func ProvideUpdatePreferencesHandler(repo domain.UserRepository) *command.UpdatePreferencesHandler {
	return command.NewUpdatePreferencesHandler(repo)
}

func ProvideDeleteUserHandler(repo domain.UserRepository, items itemdomain.ItemRepository) *command.DeleteUserHandler {
	return command.NewDeleteUserHandler(repo, items)
}

// Query Handlers Providers
func ProvideGetUserHandler(repo domain.UserRepository) *query.GetUserHandler {
	return query.NewGetUserHandler(repo)
}

func ProvideGetStatsHandler(repo domain.UserRepository) *query.GetStatsHandler {
	return query.NewGetStatsHandler(repo)
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideUserRepository,
	ProvideItemRepository,
)

var CommandSet = wire.NewSet(
	ProvideRegisterUserHandler,
	ProvideLoginUserHandler,
	ProvideUpdatePreferencesHandler,
	ProvideDeleteUserHandler,
)

var QuerySet = wire.NewSet(
	ProvideGetUserHandler,
	ProvideGetStatsHandler,
)

// InitializeHTTPHandler initializes HTTP handler with all dependencies
func InitializeHTTPHandler(db *gorm.DB) (*http.UserHandler, error) {
	wire.Build(
		RepositorySet,
		CommandSet,
		QuerySet,
		http.NewUserHandlerWithDI,
	)
	return nil, nil
}
