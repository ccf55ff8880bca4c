package services

import (
	"github.com/anonto42/spotlight/backend/internal/repositories"
	"github.com/anonto42/spotlight/backend/pkg/cache"
	"github.com/anonto42/spotlight/backend/pkg/config"
	"github.com/anonto42/spotlight/backend/pkg/events"
	"github.com/anonto42/spotlight/backend/pkg/storage"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Backends are the stores and clients the services run on
type Backends struct {
	Postgres  *gorm.DB
	Posts     repositories.PostRepository
	Stories   repositories.StoryRepository
	Redis     redis.UniversalClient
	Storage   storage.Storage
	Publisher events.Publisher
}

// Registry holds one instance of every service, wired together
type Registry struct {
	Users         *UserService
	Posts         *PostService
	Engagement    *EngagementService
	Graph         *GraphService
	Notifications *NotificationService
	Stories       *StoryService
	Accounts      *AccountService
	Dedup         *cache.Deduper
}

// NewRegistry builds the relational repositories on b.Postgres and wires all
// services with the limits and TTLs from cfg
func NewRegistry(b Backends, cfg *config.Config) *Registry {
	users := repositories.NewPostgresUserRepository(b.Postgres)
	likes := repositories.NewPostgresLikeRepository(b.Postgres)
	comments := repositories.NewPostgresCommentRepository(b.Postgres)
	bookmarks := repositories.NewPostgresBookmarkRepository(b.Postgres)
	follows := repositories.NewPostgresFollowRepository(b.Postgres)
	requests := repositories.NewPostgresFollowRequestRepository(b.Postgres)
	notifications := repositories.NewPostgresNotificationRepository(b.Postgres)
	views := repositories.NewPostgresStoryViewRepository(b.Postgres)
	tx := repositories.NewTransactor(b.Postgres)
	dedup := cache.NewDeduper(b.Redis)

	notifier := NewNotificationService(notifications, users, b.Posts, comments, b.Publisher)
	graph := NewGraphService(GraphDeps{
		Users:     users,
		Follows:   follows,
		Requests:  requests,
		Notifier:  notifier,
		Cache:     cache.NewFollowStatusCache(b.Redis, cfg.FollowCacheTTL),
		Limiter:   cache.NewThrottle(b.Redis),
		Dedup:     dedup,
		Tx:        tx,
		Publisher: b.Publisher,
		Limits: GraphLimits{
			ToggleLimit:       cfg.FollowToggleLimit,
			ToggleWindow:      cfg.FollowToggleWindow,
			NotificationDedup: cfg.NotificationDedupWindow,
		},
	})

	return &Registry{
		Users: NewUserService(users, graph),
		Posts: NewPostService(PostDeps{
			Posts: b.Posts, Stories: b.Stories, Users: users, Follows: follows, Likes: likes, Comments: comments,
			Bookmarks: bookmarks, Notifications: notifications, Storage: b.Storage, Tx: tx, Publisher: b.Publisher,
		}),
		Engagement: NewEngagementService(EngagementDeps{
			Posts: b.Posts, Users: users, Follows: follows, Likes: likes, Comments: comments, Bookmarks: bookmarks,
			Notifications: notifications, Notifier: notifier, Tx: tx, Publisher: b.Publisher,
		}),
		Graph:         graph,
		Notifications: notifier,
		Stories: NewStoryService(StoryDeps{
			Stories: b.Stories, Posts: b.Posts, Views: views, Users: users, Follows: follows,
			Storage: b.Storage, Publisher: b.Publisher, TTL: cfg.StoryTTL,
		}),
		Accounts: NewAccountService(AccountDeps{
			Users: users, Posts: b.Posts, Stories: b.Stories, Likes: likes, Comments: comments,
			Bookmarks: bookmarks, Follows: follows, Requests: requests, Notifications: notifications,
			Views: views, Storage: b.Storage, Tx: tx,
		}),
		Dedup: dedup,
	}
}
