package common

import (
	"fmt"
	"strings"
	"time"
)

func RedisKeyNotificationDedupe(recipientID, notificationType, dedupeKey string) string {
	return fmt.Sprintf("notifdedupe:%s:%s:%s", recipientID, notificationType, dedupeKey)
}

func RedisKeyFollowQuota(userID string, day time.Time) string {
	return fmt.Sprintf("followquota:%s:%s", userID, day.UTC().Format("20060102"))
}

func RedisKeyConnection(userID, connectionID string) string {
	return fmt.Sprintf("connection:%s:%s", userID, connectionID)
}

func RedisKeyConnectionPattern(userID string) string {
	return fmt.Sprintf("connection:%s:*", userID)
}

func FromRedisKeyConnection(key string) (userID, connectionID string) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 {
		return "", ""
	}

	return parts[1], parts[2]
}
