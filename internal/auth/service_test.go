package auth

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/2beens/liftlog/internal/db"
	"github.com/2beens/liftlog/pkg"
)

const (
	testEmail    = "lifter@example.com"
	testPassword = "testpass"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

type memoryAccounts struct {
	mutex  sync.Mutex
	hashes map[string]string
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{hashes: make(map[string]string)}
}

func (a *memoryAccounts) Add(_ context.Context, email, passwordHash string, _ time.Time) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if _, ok := a.hashes[email]; ok {
		return ErrAccountExists
	}
	a.hashes[email] = passwordHash
	return nil
}

func (a *memoryAccounts) PasswordHash(_ context.Context, email string) (string, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	hash, ok := a.hashes[email]
	if !ok {
		return "", ErrAccountNotFound
	}
	return hash, nil
}

func newTestService(t *testing.T, rdb *redis.Client) (*Service, *memoryAccounts) {
	t.Helper()
	accounts := newMemoryAccounts()
	service := NewService(accounts, time.Hour, rdb)
	service.PasswordHashCost = bcrypt.MinCost
	service.RandStringFunc = func(int) (string, error) {
		return "test_token", nil
	}
	return service, accounts
}

func TestService_Register(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	defer rdb.Close()
	service, accounts := newTestService(t, rdb)
	ctx := context.Background()

	require.NoError(t, service.Register(ctx, Credentials{Email: " Lifter@Example.com ", Password: testPassword}, time.Now()))
	hash, ok := accounts.hashes[testEmail]
	require.True(t, ok)
	assert.True(t, pkg.CheckPasswordHash(testPassword, hash))

	err := service.Register(ctx, Credentials{Email: testEmail, Password: testPassword}, time.Now())
	assert.ErrorIs(t, err, ErrAccountExists)

	err = service.Register(ctx, Credentials{Email: "not-an-email", Password: testPassword}, time.Now())
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = service.Register(ctx, Credentials{Email: "short@example.com", Password: "abc"}, time.Now())
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Login(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer rdb.Close()
	service, _ := newTestService(t, rdb)
	ctx := context.Background()

	require.NoError(t, service.Register(ctx, Credentials{Email: testEmail, Password: testPassword}, time.Now()))

	now := time.Now()
	sessionKey := sessionKeyPrefix + "test_token"
	mock.ExpectSet(sessionKey, fmt.Sprintf("%d|%s", now.Unix(), testEmail), time.Hour).SetVal("OK")
	mock.ExpectSAdd(tokensSetKey, "test_token").SetVal(1)

	token, err := service.Login(ctx, Credentials{Email: "LIFTER@example.com", Password: testPassword}, now)
	require.NoError(t, err)
	assert.Equal(t, "test_token", token)

	token, err = service.Login(ctx, Credentials{Email: testEmail, Password: "invalid_pass"}, now)
	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.Empty(t, token)

	token, err = service.Login(ctx, Credentials{Email: "nobody@example.com", Password: testPassword}, now)
	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.Empty(t, token)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Logout(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer rdb.Close()
	service, _ := newTestService(t, rdb)
	ctx := context.Background()

	mock.ExpectDel(sessionKeyPrefix + "token1").SetVal(1)
	mock.ExpectSRem(tokensSetKey, "token1").SetVal(1)
	loggedOut, err := service.Logout(ctx, "token1")
	require.NoError(t, err)
	assert.True(t, loggedOut)

	mock.ExpectDel(sessionKeyPrefix + "token1").SetVal(0)
	mock.ExpectSRem(tokensSetKey, "token1").SetVal(0)
	loggedOut, err = service.Logout(ctx, "token1")
	require.NoError(t, err)
	assert.False(t, loggedOut)

	mock.ExpectDel(sessionKeyPrefix + "token2").SetErr(errors.New("redis down"))
	_, err = service.Logout(ctx, "token2")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_ScanAndClean(t *testing.T) {
	now := time.Now()
	then := now.Add(-2 * time.Hour)

	rdb, mock := redismock.NewClientMock()
	defer rdb.Close()
	service, _ := newTestService(t, rdb)

	t1, t2, t3 := "token1", "token2", "token3"
	mock.ExpectSMembers(tokensSetKey).SetVal([]string{t1, t2, t3})
	mock.ExpectGet(sessionKeyPrefix + t1).SetVal(fmt.Sprintf("%d|%s", then.Unix(), testEmail))
	mock.ExpectGet(sessionKeyPrefix + t2).SetVal(fmt.Sprintf("%d|%s", now.Unix(), testEmail))
	mock.ExpectGet(sessionKeyPrefix + t3).SetErr(redis.Nil)
	// expired t1 and vanished t3 are removed
	mock.ExpectDel(sessionKeyPrefix + t1).SetVal(1)
	mock.ExpectSRem(tokensSetKey, t1).SetVal(1)
	mock.ExpectDel(sessionKeyPrefix + t3).SetVal(0)
	mock.ExpectSRem(tokensSetKey, t3).SetVal(1)

	service.ScanAndClean(context.Background(), now)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginChecker_Owner(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer rdb.Close()

	now := time.Now()
	checker := NewLoginChecker(time.Hour, rdb)
	checker.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := checker.Owner(ctx, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	mock.ExpectGet(sessionKeyPrefix + "invalid token").SetErr(redis.Nil)
	_, err = checker.Owner(ctx, "invalid token")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	mock.ExpectGet(sessionKeyPrefix + "test-token").SetVal(fmt.Sprintf("%d|%s", now.Unix(), testEmail))
	owner, err := checker.Owner(ctx, "test-token")
	require.NoError(t, err)
	assert.Equal(t, testEmail, owner)

	mock.ExpectGet(sessionKeyPrefix + "old-token").SetVal(fmt.Sprintf("%d|%s", now.Add(-2*time.Hour).Unix(), testEmail))
	_, err = checker.Owner(ctx, "old-token")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	mock.ExpectGet(sessionKeyPrefix + "broken-token").SetVal("garbage")
	_, err = checker.Owner(ctx, "broken-token")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionValue(t *testing.T) {
	createdAt := time.Unix(1700000000, 0)
	value := encodeSession(createdAt, "a|b@example.com")
	assert.Equal(t, "1700000000|a|b@example.com", value)

	decodedAt, owner, err := decodeSession(value)
	require.NoError(t, err)
	assert.True(t, createdAt.Equal(decodedAt))
	assert.Equal(t, "a|b@example.com", owner)

	_, _, err = decodeSession("1700000000|")
	assert.Error(t, err)
	_, _, err = decodeSession("abc|x@example.com")
	assert.Error(t, err)
}

func TestSQLiteAccounts(t *testing.T) {
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	defer func() {
		_ = db.CloseSQLite(database)
	}()

	accounts, err := NewSQLiteAccounts(database)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = accounts.PasswordHash(ctx, testEmail)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	require.NoError(t, accounts.Add(ctx, testEmail, "hash-1", time.Now()))
	assert.ErrorIs(t, accounts.Add(ctx, testEmail, "hash-2", time.Now()), ErrAccountExists)

	hash, err := accounts.PasswordHash(ctx, testEmail)
	require.NoError(t, err)
	assert.Equal(t, "hash-1", hash)
}

func TestContextOwner(t *testing.T) {
	_, ok := OwnerFromContext(context.Background())
	assert.False(t, ok)

	_, ok = OwnerFromContext(ContextWithOwner(context.Background(), ""))
	assert.False(t, ok)

	owner, ok := OwnerFromContext(ContextWithOwner(context.Background(), testEmail))
	assert.True(t, ok)
	assert.Equal(t, testEmail, owner)
}
