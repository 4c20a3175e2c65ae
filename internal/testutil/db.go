package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Environment variables that point tests at already-running backends. When
// unset, a container is started with testcontainers; when that fails too
// (no Docker), the test is skipped.
const (
	MongoURIEnv  = "HYPERTUBE_TEST_MONGO_URI"
	RedisAddrEnv = "HYPERTUBE_TEST_REDIS_ADDR"
)

// TestContext returns a context with a timeout suitable for a single test.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

var (
	mongoOnce   sync.Once
	mongoClient *mongo.Client
	mongoErr    error

	redisOnce sync.Once
	redisAddr string
	redisErr  error
)

// SetupTestDB returns a fresh database for the calling test and drops it on
// cleanup. The client is shared by all tests in the package.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	mongoOnce.Do(func() {
		uri := os.Getenv(MongoURIEnv)
		if uri == "" {
			uri, mongoErr = startContainer("mongo:7", "27017/tcp", "mongodb://%s:%s")
			if mongoErr != nil {
				return
			}
		}
		ctx, cancel := TestContext()
		defer cancel()
		mongoClient, mongoErr = mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if mongoErr == nil {
			mongoErr = mongoClient.Ping(ctx, nil)
		}
	})
	if mongoErr != nil {
		t.Skipf("mongo not available: %v", mongoErr)
	}

	name := "hypertube_test_" + primitive.NewObjectID().Hex()
	db := mongoClient.Database(name)
	t.Cleanup(func() {
		ctx, cancel := TestContext()
		defer cancel()
		_ = db.Drop(ctx)
	})
	return db
}

// SetupTestRedis returns a client on a Redis used only by tests. Keys are
// flushed on cleanup.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	redisOnce.Do(func() {
		redisAddr = os.Getenv(RedisAddrEnv)
		if redisAddr == "" {
			var uri string
			uri, redisErr = startContainer("redis:7-alpine", "6379/tcp", "%s:%s")
			redisAddr = uri
		}
	})
	if redisErr != nil {
		t.Skipf("redis not available: %v", redisErr)
	}

	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	ctx, cancel := TestContext()
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", redisAddr, err)
	}
	t.Cleanup(func() {
		ctx, cancel := TestContext()
		defer cancel()
		_ = client.FlushDB(ctx).Err()
		_ = client.Close()
	})
	return client
}

// startContainer starts image and returns addrFormat filled with host and
// mapped port. The container is reaped by testcontainers when the test
// binary exits.
func startContainer(image string, port nat.Port, addrFormat string) (addr string, err error) {
	defer func() {
		// testcontainers panics when no Docker provider can be found.
		if r := recover(); r != nil {
			err = fmt.Errorf("start %s: %v", image, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{string(port)},
			WaitingFor:   wait.ForListeningPort(port),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start %s: %w", image, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(addrFormat, host, mapped.Port()), nil
}
