//go:build wireinject
// +build wireinject

package notification

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/shelfwatch/shelfwatch/internal/notification/channel"
	"github.com/shelfwatch/shelfwatch/internal/notification/delivery/http"
	"github.com/shelfwatch/shelfwatch/internal/notification/domain"
	"github.com/shelfwatch/shelfwatch/internal/notification/repository"
	"github.com/shelfwatch/shelfwatch/internal/notification/usecase/command"
	"github.com/shelfwatch/shelfwatch/internal/notification/usecase/query"
	userdomain "github.com/shelfwatch/shelfwatch/internal/user/domain"
	userrepository "github.com/shelfwatch/shelfwatch/internal/user/repository"
	"github.com/shelfwatch/shelfwatch/kafka"
)

// ProvideNotificationRepository provides the notification repository
func ProvideNotificationRepository(db *gorm.DB) domain.NotificationRepository {
	return repository.NewGormNotificationRepository(db)
}

// ProvideUserRepository provides the user repository, needed for
// channel opt-in checks
func ProvideUserRepository(db *gorm.DB) userdomain.UserRepository {
	return userrepository.NewGormUserRepository(db)
}

// ProvideDispatcher provides the channel dispatcher with all senders
func ProvideDispatcher(repo domain.NotificationRepository, publisher *kafka.Publisher) *channel.Dispatcher {
	return channel.NewDispatcher(
		channel.NewInAppSender(repo),
		channel.NewEmailSender(publisher),
		channel.NewSMSSender(publisher),
	)
}

// Command Handlers Providers
func ProvideMarkReadHandler(repo domain.NotificationRepository) *command.MarkReadHandler {
	return command.NewMarkReadHandler(repo)
}

func ProvideSendTestNotificationHandler(
	repo domain.NotificationRepository,
	users userdomain.UserRepository,
	dispatcher *channel.Dispatcher,
) *command.SendTestNotificationHandler {
	return command.NewSendTestNotificationHandler(repo, users, dispatcher)
}

// Query Handlers Providers
func ProvideListNotificationsHandler(repo domain.NotificationRepository) *query.ListNotificationsHandler {
	return query.NewListNotificationsHandler(repo)
}

func ProvideCountUnreadHandler(repo domain.NotificationRepository) *query.CountUnreadHandler {
	return query.NewCountUnreadHandler(repo)
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideNotificationRepository,
	ProvideUserRepository,
	ProvideDispatcher,
)

var CommandSet = wire.NewSet(
	ProvideMarkReadHandler,
	ProvideSendTestNotificationHandler,
)

var QuerySet = wire.NewSet(
	ProvideListNotificationsHandler,
	ProvideCountUnreadHandler,
)

// InitializeHTTPHandler initializes HTTP handler with all dependencies
func InitializeHTTPHandler(db *gorm.DB, publisher *kafka.Publisher) (*http.NotificationHandler, error) {
	wire.Build(
		RepositorySet,
		CommandSet,
		QuerySet,
		http.NewNotificationHandlerWithDI,
	)
	return nil, nil
}
