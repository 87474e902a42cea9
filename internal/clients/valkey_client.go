package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/spacesedan/wctweets/config"
)

// ValkeyClient is a small string cache over valkey.
type ValkeyClient struct {
	Client valkey.Client
}

func NewValkeyClient(ctx context.Context, cfg config.CacheConfig) (*ValkeyClient, error) {
	opts := valkey.ClientOption{
		InitAddress:      []string{cfg.Address},
		Password:         cfg.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	vc := &ValkeyClient{Client: client}
	if err := vc.Ping(ctx); err != nil {
		client.Close()
		return nil, err
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey", slog.String("address", cfg.Address))
	return vc, nil
}

func (vc *ValkeyClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, PING_TIMEOUT)
	defer cancel()
	if err := vc.Client.Do(ctx, vc.Client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}
	return nil
}

// Get returns the value at key. ok is false when the key does not exist.
func (vc *ValkeyClient) Get(ctx context.Context, key string) (string, bool, error) {
	res := vc.DoWithRetry(ctx, func() valkey.Completed {
		return vc.Client.B().Get().Key(key).Build()
	}, RETRIES)
	val, err := res.ToString()
	if valkey.IsValkeyNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("[ValkeyClient] get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value at key for ttl. A ttl below one second stores it without expiry.
func (vc *ValkeyClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	secs := int64(ttl / time.Second)
	build := func() valkey.Completed {
		if secs > 0 {
			return vc.Client.B().Set().Key(key).Value(value).ExSeconds(secs).Build()
		}
		return vc.Client.B().Set().Key(key).Value(value).Build()
	}
	if err := vc.DoWithRetry(ctx, build, RETRIES).Error(); err != nil {
		return fmt.Errorf("[ValkeyClient] set %s: %w", key, err)
	}
	return nil
}

// DoWithRetry runs the command from build up to retries times. Do recycles
// a command once it has been sent, so build is called again for every attempt.
func (vc *ValkeyClient) DoWithRetry(ctx context.Context, build func() valkey.Completed, retries int) valkey.ValkeyResult {
	return withRetry(ctx, retries, RETRY_DELAY,
		func() valkey.ValkeyResult { return vc.Client.Do(ctx, build()) },
		func(r valkey.ValkeyResult) error { return r.Error() },
	)
}

// withRetry calls attempt until it succeeds, the error is a valkey nil
// reply, ctx is done, or retries attempts have been made.
func withRetry[R any](ctx context.Context, retries int, delay time.Duration, attempt func() R, errOf func(R) error) R {
	var result R
	for i := 0; i < retries; i++ {
		result = attempt()
		err := errOf(result)
		if err == nil || valkey.IsValkeyNil(err) || ctx.Err() != nil {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))

		if i < retries-1 {
			time.Sleep(delay)
		}
	}
	return result
}

func (vc *ValkeyClient) Close() {
	vc.Client.Close()
}
