package main

import (
	"net/http"

	"github.com/pacelog/backend/internal/middleware"
	"github.com/pacelog/backend/pkg/router"
	"github.com/pacelog/backend/pkg/xcontext"
	"github.com/rs/cors"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.loadDatabase()
	s.migrateDB()
	s.loadRedisClient()
	s.loadPublishers()
	s.loadRepos()
	s.loadNotificationEngine()
	s.loadDomains()

	cfg := xcontext.Configs(s.ctx)
	apiRouter := s.loadAPIRouter()

	xcontext.Logger(s.ctx).Infof("Starting api server on port: %s", cfg.ApiServer.Port)
	httpSrv := &http.Server{
		Addr:    cfg.ApiServer.Address(),
		Handler: cors.AllowAll().Handler(apiRouter.Handler()),
	}
	if err := httpSrv.ListenAndServe(); err != nil {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Api server stopped")
	return nil
}

func (s *srv) loadAPIRouter() *router.Router {
	cfg := xcontext.Configs(s.ctx)
	defaultRouter := router.New(xcontext.DB(s.ctx), cfg, xcontext.Logger(s.ctx))
	defaultRouter.AddCloser(middleware.Logger())

	authRouter := defaultRouter.Branch()
	authRouter.Before(middleware.Authenticate())
	{
		// Follow API
		router.POST(authRouter, "/followUser", s.followDomain.Follow)
		router.POST(authRouter, "/unfollowUser", s.followDomain.Unfollow)
		router.POST(authRouter, "/cancelFollowRequest", s.followDomain.CancelRequest)
		router.POST(authRouter, "/acceptFollowRequest", s.followDomain.AcceptRequest)
		router.POST(authRouter, "/declineFollowRequest", s.followDomain.DeclineRequest)
		router.POST(authRouter, "/removeFollower", s.followDomain.RemoveFollower)
		router.GET(authRouter, "/getFollowers", s.followDomain.GetFollowers)
		router.GET(authRouter, "/getFollowing", s.followDomain.GetFollowing)
		router.GET(authRouter, "/getFollowRequests", s.followDomain.GetFollowRequests)
		router.GET(authRouter, "/getMutuals", s.followDomain.GetMutuals)
		router.GET(authRouter, "/getRelationships", s.followDomain.GetRelationships)
		router.POST(authRouter, "/reconcileCounters", s.followDomain.ReconcileCounters)

		// Notification API
		router.GET(authRouter, "/getNotifications", s.notificationDomain.GetNotifications)
		router.GET(authRouter, "/getUnreadCount", s.notificationDomain.GetUnreadCount)
		router.POST(authRouter, "/markNotificationRead", s.notificationDomain.MarkRead)
		router.POST(authRouter, "/markAllNotificationsRead", s.notificationDomain.MarkAllRead)
		router.POST(authRouter, "/deleteNotification", s.notificationDomain.Delete)
	}

	return defaultRouter
}
