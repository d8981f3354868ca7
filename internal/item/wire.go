//go:build wireinject
// +build wireinject

package item

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/shelfwatch/shelfwatch/internal/item/delivery/http"
	"github.com/shelfwatch/shelfwatch/internal/item/domain"
	"github.com/shelfwatch/shelfwatch/internal/item/repository"
	"github.com/shelfwatch/shelfwatch/internal/item/usecase/command"
	"github.com/shelfwatch/shelfwatch/internal/item/usecase/query"
	"github.com/shelfwatch/shelfwatch/internal/ocr"
	"github.com/shelfwatch/shelfwatch/pkg/clock"
)

// ProvideItemRepository provides the item repository
func ProvideItemRepository(db *gorm.DB) domain.ItemRepository {
	return repository.NewGormItemRepository(db)
}

// Command Handlers Providers
func ProvideCreateItemHandler(repo domain.ItemRepository, clk clock.Clock, mirror command.ItemMirror) *command.CreateItemHandler {
	return command.NewCreateItemHandler(repo, clk, mirror)
}

func ProvideUpdateItemHandler(repo domain.ItemRepository, clk clock.Clock, mirror command.ItemMirror) *command.UpdateItemHandler {
	return command.NewUpdateItemHandler(repo, clk, mirror)
}

func ProvideDeleteItemHandler(repo domain.ItemRepository, mirror command.ItemMirror) *command.DeleteItemHandler {
	return command.NewDeleteItemHandler(repo, mirror)
}

func ProvideApplyScannedExpiryHandler(repo domain.ItemRepository, clk clock.Clock, mirror command.ItemMirror) *command.ApplyScannedExpiryHandler {
	return command.NewApplyScannedExpiryHandler(repo, clk, mirror)
}

// Query Handlers Providers
func ProvideGetItemHandler(repo domain.ItemRepository, clk clock.Clock) *query.GetItemHandler {
	return query.NewGetItemHandler(repo, clk)
}

func ProvideListItemsHandler(repo domain.ItemRepository, clk clock.Clock) *query.ListItemsHandler {
	return query.NewListItemsHandler(repo, clk)
}

func ProvideGetStatsHandler(repo domain.ItemRepository) *query.GetStatsHandler {
	return query.NewGetStatsHandler(repo)
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideItemRepository,
)

var CommandSet = wire.NewSet(
	ProvideCreateItemHandler,
	ProvideUpdateItemHandler,
	ProvideDeleteItemHandler,
	ProvideApplyScannedExpiryHandler,
)

var QuerySet = wire.NewSet(
	ProvideGetItemHandler,
	ProvideListItemsHandler,
	ProvideGetStatsHandler,
)

// InitializeHTTPHandler initializes HTTP handler with all dependencies
func InitializeHTTPHandler(db *gorm.DB, extractor ocr.Extractor, clk clock.Clock, mirror command.ItemMirror) (*http.ItemHandler, error) {
	wire.Build(
		RepositorySet,
		CommandSet,
		QuerySet,
		http.NewItemHandlerWithDI,
	)
	return nil, nil
}
