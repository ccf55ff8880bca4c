package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/repositories"
	"github.com/anonto42/spotlight/backend/internal/testutil"
	"github.com/anonto42/spotlight/backend/pkg/cache"
	"github.com/anonto42/spotlight/backend/pkg/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type harness struct {
	db    *gorm.DB
	mr    *miniredis.Miniredis
	clock time.Time

	users         repositories.UserRepository
	likes         repositories.LikeRepository
	comments      repositories.CommentRepository
	bookmarks     repositories.BookmarkRepository
	follows       repositories.FollowRepository
	requests      repositories.FollowRequestRepository
	notifications repositories.NotificationRepository
	views         repositories.StoryViewRepository
	posts         *testutil.PostStore
	stories       *testutil.StoryStore
	store         *testutil.Storage
	pub           *testutil.Publisher

	notifier   *NotificationService
	postSvc    *PostService
	engagement *EngagementService
	graph      *GraphService
	userSvc    *UserService
	account    *AccountService
	storySvc   *StoryService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := &harness{
		db:            db,
		mr:            mr,
		clock:         time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		users:         repositories.NewPostgresUserRepository(db),
		likes:         repositories.NewPostgresLikeRepository(db),
		comments:      repositories.NewPostgresCommentRepository(db),
		bookmarks:     repositories.NewPostgresBookmarkRepository(db),
		follows:       repositories.NewPostgresFollowRepository(db),
		requests:      repositories.NewPostgresFollowRequestRepository(db),
		notifications: repositories.NewPostgresNotificationRepository(db),
		views:         repositories.NewPostgresStoryViewRepository(db),
		posts:         testutil.NewPostStore(),
		stories:       testutil.NewStoryStore(),
		store:         &testutil.Storage{},
		pub:           &testutil.Publisher{},
	}
	tx := repositories.NewTransactor(db)
	now := func() time.Time { return h.clock }

	h.notifier = NewNotificationService(h.notifications, h.users, h.posts, h.comments, h.pub)
	h.notifier.now = now
	h.postSvc = NewPostService(PostDeps{
		Posts: h.posts, Stories: h.stories, Users: h.users, Follows: h.follows, Likes: h.likes, Comments: h.comments,
		Bookmarks: h.bookmarks, Notifications: h.notifications, Storage: h.store, Tx: tx, Publisher: h.pub,
	})
	h.engagement = NewEngagementService(EngagementDeps{
		Posts: h.posts, Users: h.users, Follows: h.follows, Likes: h.likes, Comments: h.comments, Bookmarks: h.bookmarks,
		Notifications: h.notifications, Notifier: h.notifier, Tx: tx, Publisher: h.pub,
	})
	h.graph = NewGraphService(GraphDeps{
		Users: h.users, Follows: h.follows, Requests: h.requests, Notifier: h.notifier,
		Cache:   cache.NewFollowStatusCache(rdb, 5*time.Minute),
		Limiter: cache.NewThrottle(rdb),
		Dedup:   cache.NewDeduper(rdb),
		Tx:      tx, Publisher: h.pub,
		Limits: GraphLimits{ToggleLimit: 5, ToggleWindow: time.Minute, NotificationDedup: time.Hour},
	})
	h.userSvc = NewUserService(h.users, h.graph)
	h.account = NewAccountService(AccountDeps{
		Users: h.users, Posts: h.posts, Stories: h.stories, Likes: h.likes, Comments: h.comments,
		Bookmarks: h.bookmarks, Follows: h.follows, Requests: h.requests, Notifications: h.notifications,
		Views: h.views, Storage: h.store, Tx: tx,
	})
	h.storySvc = NewStoryService(StoryDeps{
		Stories: h.stories, Posts: h.posts, Views: h.views, Users: h.users, Follows: h.follows,
		Storage: h.store, Publisher: h.pub, TTL: 24 * time.Hour, Now: now,
	})
	return h
}

func (h *harness) user(t *testing.T, username string, private bool) *models.User {
	t.Helper()
	u := &models.User{
		Username:    username,
		FullName:    username,
		Email:       username + "@example.com",
		ProviderUID: "uid_" + username,
		IsPrivate:   private,
	}
	require.NoError(t, h.users.CreateUser(context.Background(), u))
	return u
}

func (h *harness) reload(t *testing.T, id uint) *models.User {
	t.Helper()
	u, err := h.users.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (h *harness) post(t *testing.T, author *models.User) *models.FeedPost {
	t.Helper()
	p, err := h.postSvc.CreatePost(context.Background(), author.ID, models.CreatePostRequest{
		StorageID: storage.NewUploadKey(author.ID),
		Caption:   "hello",
	})
	require.NoError(t, err)
	return p
}

func (h *harness) countNotifications(t *testing.T, receiverID uint, kind string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(&models.Notification{}).
		Where("receiver_id = ? AND type = ?", receiverID, kind).Count(&n).Error)
	return n
}
