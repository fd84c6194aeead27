package testing

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

// RunRedis starts a throwaway redis container and waits until it answers
// a ping. The returned cleanup purges the container.
func RunRedis(pool *dockertest.Pool) (host, port string, cleanup func(), err error) {
	redisResource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "6.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return "", "", nil, fmt.Errorf("run redis: %w", err)
	}

	cleanup = func() {
		if err := pool.Purge(redisResource); err != nil {
			fmt.Printf("redis teardown: %s\n", err)
		}
	}

	// in case the test binary gets killed before the cleanup
	if err := redisResource.Expire(120); err != nil {
		cleanup()
		return "", "", nil, fmt.Errorf("set redis container expiry: %w", err)
	}

	host, port = "localhost", redisResource.GetPort("6379/tcp")
	pool.MaxWait = 30 * time.Second
	if err := pool.Retry(func() error {
		return PingRedis(host, port)
	}); err != nil {
		cleanup()
		return "", "", nil, fmt.Errorf("wait for redis: %w", err)
	}

	return host, port, cleanup, nil
}

func PingRedis(host, port string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr: net.JoinHostPort(host, port),
		DB:   0, // use default DB
	})
	defer func() {
		_ = rdb.Close()
	}()

	return rdb.Ping(ctx).Err()
}
