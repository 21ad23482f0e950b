package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env string

	ApiServer    ServerConfigs
	SocketServer ServerConfigs
	Database     DatabaseConfigs
	Redis        RedisConfigs
	Kafka        KafkaConfigs
	Auth         AuthConfigs
	Follow       FollowConfigs
	Notification NotificationConfigs
	Socket       SocketConfigs
}

type ServerConfigs struct {
	Host string
	Port string

	DefaultLimit int
	MaxLimit     int
}

func (s ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (d DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type RedisConfigs struct {
	Addr string
}

type KafkaConfigs struct {
	Addr string

	DispatchTopic string
}

type AuthConfigs struct {
	TokenSecret string
	AccessToken TokenConfigs
}

type TokenConfigs struct {
	Name       string
	Expiration time.Duration
}

type FollowConfigs struct {
	// MaxFollowing caps the number of accounts one user can follow.
	MaxFollowing int

	// DailyLimit caps follow attempts within a rolling day.
	DailyLimit int

	// MaxLookupBatch is the maximum number of target ids resolved by a
	// single relationship lookup. Excess ids are truncated.
	MaxLookupBatch int
}

type NotificationConfigs struct {
	// DedupeWindow is the default time span during which a repeated
	// semantic event is suppressed instead of re-notified.
	DedupeWindow time.Duration

	// PendingBatchLimit caps the number of undelivered notifications
	// flushed to a client right after it connects.
	PendingBatchLimit int

	MaxPageSize int

	FanoutChannel string

	// SnowflakeNodeID distinguishes id generators of different processes.
	SnowflakeNodeID int64
}

type SocketConfigs struct {
	MaxConnectionsPerUser int

	PingPeriod  time.Duration
	PongTimeout time.Duration

	// RegistryTTL is the lease duration of a connection entry in the
	// cross-process registry. Heartbeats refresh it.
	RegistryTTL time.Duration

	// SuppressionTTL bounds how long a recently deleted notification id is
	// remembered to discard stale fan-out messages.
	SuppressionTTL time.Duration
}
