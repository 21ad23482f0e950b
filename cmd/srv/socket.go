package main

import (
	"context"
	"net/http"

	"github.com/pacelog/backend/internal/domain/notification/proxy"
	"github.com/pacelog/backend/internal/middleware"
	"github.com/pacelog/backend/internal/model"
	"github.com/pacelog/backend/pkg/redispubsub"
	"github.com/pacelog/backend/pkg/router"
	"github.com/pacelog/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startSocket(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.loadDatabase()
	s.migrateDB()
	s.loadRedisClient()
	s.loadRepos()

	s.notificationProxy = proxy.New(
		proxy.NewHub(),
		proxy.NewRegistry(s.redisClient),
		s.notificationRepo,
		s.userRepo,
	)

	cfg := xcontext.Configs(s.ctx)
	subscriber := redispubsub.NewSubscriber(
		s.rawRedisClient,
		[]string{cfg.Notification.FanoutChannel},
		s.notificationProxy.HandleFanout,
	)
	subscriber.Subscribe(s.ctx)
	defer subscriber.Stop(s.ctx)

	defaultRouter := router.New(xcontext.DB(s.ctx), cfg, xcontext.Logger(s.ctx))
	defaultRouter.AddCloser(middleware.Logger())
	defaultRouter.Before(middleware.Authenticate())
	router.Websocket(defaultRouter, "/notification", func(ctx context.Context) error {
		return s.notificationProxy.ServeSocket(ctx, &model.ServeSocketRequest{})
	})

	xcontext.Logger(s.ctx).Infof("Starting socket server on port: %s", cfg.SocketServer.Port)
	httpSrv := &http.Server{
		Addr:    cfg.SocketServer.Address(),
		Handler: defaultRouter.Handler(),
	}
	if err := httpSrv.ListenAndServe(); err != nil {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Socket server stopped")
	return nil
}
