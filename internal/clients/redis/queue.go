package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
)

// ProcessMessage is the queue-boundary payload handed from the upload
// intake (or poller) to the processing worker. FileBuffer carries a
// base64 copy of the bytes so the worker does not have to re-fetch
// storage for small archives; the worker falls back to StoragePath when
// the buffer is empty.
// MaxInlineBufferBytes caps the raw size a producer may embed as
// FileBuffer. Larger payloads ride as StoragePath only; base64 adds a
// third on top, and redis should not carry hundred-megabyte values.
const MaxInlineBufferBytes = 8 << 20

type ProcessMessage struct {
	BatchID          string `json:"batchId"`
	TenantID         string `json:"tenantId"`
	StoragePath      string `json:"storagePath,omitempty"`
	FileBuffer       string `json:"fileBuffer,omitempty"`
	OriginalFileName string `json:"originalFileName"`
}

// ProcessQueue is the async boundary between intake and the renewal
// worker. LPUSH on the producer side, blocking RPOP on the consumer.
type ProcessQueue interface {
	Enqueue(ctx context.Context, msg ProcessMessage) error
	Dequeue(ctx context.Context, timeout time.Duration) (*ProcessMessage, error)
	Close() error
}

type processQueue struct {
	log *logger.Logger
	rdb *goredis.Client
	key string
}

func NewProcessQueue(log *logger.Logger) (ProcessQueue, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	key := strings.TrimSpace(os.Getenv("REDIS_RENEWAL_QUEUE"))
	if key == "" {
		key = "renewal:process"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &processQueue{
		log: log.With("service", "RenewalProcessQueue"),
		rdb: rdb,
		key: key,
	}, nil
}

func (q *processQueue) Enqueue(ctx context.Context, msg ProcessMessage) error {
	if q == nil || q.rdb == nil {
		return fmt.Errorf("process queue not initialized")
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal process message: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("redis lpush: %w", err)
	}
	return nil
}

func (q *processQueue) Dequeue(ctx context.Context, timeout time.Duration) (*ProcessMessage, error) {
	if q == nil || q.rdb == nil {
		return nil, fmt.Errorf("process queue not initialized")
	}
	res, err := q.rdb.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, err
	}
	if len(res) < 2 {
		return nil, nil
	}
	var msg ProcessMessage
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		q.log.Warn("Dropping undecodable process message", "error", err)
		return nil, nil
	}
	return &msg, nil
}

func (q *processQueue) Close() error {
	if q == nil || q.rdb == nil {
		return nil
	}
	return q.rdb.Close()
}
