package main

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pacelog/backend/config"
	"github.com/pacelog/backend/internal/domain"
	"github.com/pacelog/backend/internal/domain/notification/engine"
	"github.com/pacelog/backend/internal/domain/notification/proxy"
	"github.com/pacelog/backend/internal/repository"
	"github.com/pacelog/backend/migration"
	"github.com/pacelog/backend/pkg/kafka"
	"github.com/pacelog/backend/pkg/logger"
	"github.com/pacelog/backend/pkg/pubsub"
	"github.com/pacelog/backend/pkg/redispubsub"
	"github.com/pacelog/backend/pkg/xcontext"
	"github.com/pacelog/backend/pkg/xredis"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	app *cli.App
	ctx context.Context

	userRepo          repository.UserRepository
	followEdgeRepo    repository.FollowEdgeRepository
	followCounterRepo repository.FollowCounterRepository
	notificationRepo  repository.NotificationRepository

	followDomain       domain.FollowDomain
	notificationDomain domain.NotificationDomain

	notificationEngine engine.Engine
	notificationProxy  *proxy.Proxy

	redisClient       xredis.Client
	rawRedisClient    *redis.Client
	fanoutPublisher   pubsub.Publisher
	outboundPublisher pubsub.Publisher
}

func (s *srv) loadConfig() {
	cfg := config.Configs{
		Env: getEnv("ENV", "local"),
		ApiServer: config.ServerConfigs{
			Host:         getEnv("API_HOST", ""),
			Port:         getEnv("API_PORT", "8080"),
			DefaultLimit: getEnvAsInt("API_DEFAULT_LIMIT", 20),
			MaxLimit:     getEnvAsInt("API_MAX_LIMIT", 50),
		},
		SocketServer: config.ServerConfigs{
			Host: getEnv("SOCKET_HOST", ""),
			Port: getEnv("SOCKET_PORT", "8081"),
		},
		Database: config.DatabaseConfigs{
			Host:     getEnv("MYSQL_HOST", "localhost"),
			Port:     getEnv("MYSQL_PORT", "3306"),
			Database: getEnv("MYSQL_DATABASE", "pacelog"),
			User:     getEnv("MYSQL_USER", "root"),
			Password: getEnv("MYSQL_PASSWORD", "mysql"),
		},
		Redis: config.RedisConfigs{
			Addr: getEnv("REDIS_ADDRESS", "localhost:6379"),
		},
		Kafka: config.KafkaConfigs{
			Addr:          getEnv("KAFKA_ADDRESS", "localhost:9092"),
			DispatchTopic: getEnv("KAFKA_DISPATCH_TOPIC", "notification-dispatch"),
		},
		Auth: config.AuthConfigs{
			TokenSecret: getEnv("TOKEN_SECRET", "token_secret"),
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: getEnvAsDuration("ACCESS_TOKEN_DURATION", "24h"),
			},
		},
		Follow: config.FollowConfigs{
			MaxFollowing:   getEnvAsInt("FOLLOW_MAX_FOLLOWING", 5000),
			DailyLimit:     getEnvAsInt("FOLLOW_DAILY_LIMIT", 200),
			MaxLookupBatch: getEnvAsInt("FOLLOW_MAX_LOOKUP_BATCH", 100),
		},
		Notification: config.NotificationConfigs{
			DedupeWindow:      getEnvAsDuration("NOTIFICATION_DEDUPE_WINDOW", "10m"),
			PendingBatchLimit: getEnvAsInt("NOTIFICATION_PENDING_BATCH_LIMIT", 50),
			MaxPageSize:       getEnvAsInt("NOTIFICATION_MAX_PAGE_SIZE", 50),
			FanoutChannel:     getEnv("NOTIFICATION_FANOUT_CHANNEL", "notifications"),
			SnowflakeNodeID:   int64(getEnvAsInt("SNOWFLAKE_NODE_ID", 1)),
		},
		Socket: config.SocketConfigs{
			MaxConnectionsPerUser: getEnvAsInt("SOCKET_MAX_CONNECTIONS_PER_USER", 5),
			PingPeriod:            getEnvAsDuration("SOCKET_PING_PERIOD", "25s"),
			PongTimeout:           getEnvAsDuration("SOCKET_PONG_TIMEOUT", "60s"),
			RegistryTTL:           getEnvAsDuration("SOCKET_REGISTRY_TTL", "90s"),
			SuppressionTTL:        getEnvAsDuration("SOCKET_SUPPRESSION_TTL", "10m"),
		},
	}

	s.ctx = xcontext.WithConfigs(context.Background(), cfg)
}

func (s *srv) loadLogger() {
	level := logger.INFO
	if xcontext.Configs(s.ctx).Env == "local" {
		level = logger.DEBUG
	}

	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(level))
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx)
	db, err := gorm.Open(mysql.Open(cfg.Database.ConnectionString()), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) loadDatabase() {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
}

func (s *srv) migrateDB() {
	if err := migration.MigrateTable(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRedisClient() {
	cfg := xcontext.Configs(s.ctx)
	s.rawRedisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	var err error
	s.redisClient, err = xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadPublishers() {
	s.fanoutPublisher = redispubsub.NewPublisher(s.rawRedisClient)
	s.outboundPublisher = kafka.NewPublisher(
		"pacelog-"+strconv.FormatInt(time.Now().UnixNano(), 10),
		strings.Split(xcontext.Configs(s.ctx).Kafka.Addr, ","),
	)
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.followEdgeRepo = repository.NewFollowEdgeRepository()
	s.followCounterRepo = repository.NewFollowCounterRepository()
	s.notificationRepo = repository.NewNotificationRepository()
}

func (s *srv) loadNotificationEngine() {
	node, err := snowflake.NewNode(xcontext.Configs(s.ctx).Notification.SnowflakeNodeID)
	if err != nil {
		panic(err)
	}

	s.notificationEngine = engine.NewEngine(
		s.notificationRepo,
		s.userRepo,
		s.redisClient,
		s.fanoutPublisher,
		s.outboundPublisher,
		node,
	)
}

func (s *srv) loadDomains() {
	s.followDomain = domain.NewFollowDomain(
		s.followEdgeRepo,
		s.followCounterRepo,
		s.userRepo,
		s.notificationEngine,
		s.redisClient,
	)
	s.notificationDomain = domain.NewNotificationDomain(
		s.notificationRepo,
		s.userRepo,
		s.fanoutPublisher,
	)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		panic(err)
	}

	return n
}

func getEnvAsDuration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		panic(err)
	}

	return d
}
