package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "liftlog-session||"
	tokensSetKey     = "liftlog-sessions"
	tokenLength      = 35
)

var ErrSessionNotFound = errors.New("session not found")

// session values are stored as "<createdAtUnix>|<owner>"
func encodeSession(createdAt time.Time, owner string) string {
	return fmt.Sprintf("%d|%s", createdAt.Unix(), owner)
}

func decodeSession(value string) (createdAt time.Time, owner string, err error) {
	createdAtStr, owner, found := strings.Cut(value, "|")
	if !found || owner == "" {
		return time.Time{}, "", fmt.Errorf("malformed session value %q", value)
	}
	createdAtUnix, err := strconv.ParseInt(createdAtStr, 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("parse session time: %w", err)
	}
	return time.Unix(createdAtUnix, 0), owner, nil
}
