package bloom

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBitFactory backs bit vectors with Redis bitmaps (SETBIT/GETBIT),
// one key per vector. This is the shared backing: several processes
// pointed at the same Redis see the same bits.
//
// Error policy: Redis failures fail open. A failed Get reports the bit as
// unset and a failed Set is dropped, so during an outage the filter
// under-reports membership and the embedding limiter admits traffic it
// would otherwise have exact-checked. Callers that prefer to fail closed
// can observe failures through WithOnError and swap backings. This mirrors
// the availability-versus-protection tradeoff the caller already owns.
type RedisBitFactory struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
	ttl     time.Duration
	onError func(error)
	seq     atomic.Uint64
}

// RedisBitOption configures a RedisBitFactory.
type RedisBitOption func(*RedisBitFactory)

// WithPrefix sets the key prefix (default "bloombits:").
func WithPrefix(prefix string) RedisBitOption {
	return func(f *RedisBitFactory) { f.prefix = prefix }
}

// WithTimeout sets the per-operation context timeout (default 5s).
func WithTimeout(timeout time.Duration) RedisBitOption {
	return func(f *RedisBitFactory) { f.timeout = timeout }
}

// WithTTL sets an expiry refreshed on every Set, so bitmaps for filters
// that stop being written eventually vanish from Redis (default 24h; 0
// disables expiry).
func WithTTL(ttl time.Duration) RedisBitOption {
	return func(f *RedisBitFactory) { f.ttl = ttl }
}

// WithOnError installs a callback invoked with every Redis error the
// backing swallows.
func WithOnError(fn func(error)) RedisBitOption {
	return func(f *RedisBitFactory) { f.onError = fn }
}

// NewRedisBitFactory verifies connectivity with a ping and returns a
// factory producing Redis-backed bit vectors.
func NewRedisBitFactory(client *redis.Client, opts ...RedisBitOption) (*RedisBitFactory, error) {
	f := &RedisBitFactory{
		client:  client,
		prefix:  "bloombits:",
		timeout: 5 * time.Second,
		ttl:     24 * time.Hour,
	}
	for _, opt := range opts {
		opt(f)
	}

	ctx, cancel := f.opContext()
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RedisBitFactory) New(size int) BitVector {
	key := f.nextKey()

	// A stale key from a previous process must not leak bits into a fresh
	// vector.
	ctx, cancel := f.opContext()
	defer cancel()
	if err := f.client.Del(ctx, key).Err(); err != nil {
		f.fail(err)
	}

	return &redisBits{factory: f, key: key, size: size}
}

func (f *RedisBitFactory) nextKey() string {
	return f.prefix + strconv.FormatUint(f.seq.Add(1), 10)
}

func (f *RedisBitFactory) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), f.timeout)
}

func (f *RedisBitFactory) fail(err error) {
	if f.onError != nil {
		f.onError(err)
	}
}

type redisBits struct {
	factory *RedisBitFactory
	key     string
	size    int
}

func (r *redisBits) Get(i int) bool {
	ctx, cancel := r.factory.opContext()
	defer cancel()

	val, err := r.factory.client.GetBit(ctx, r.key, int64(i)).Result()
	if err != nil {
		r.factory.fail(err)
		return false
	}
	return val == 1
}

func (r *redisBits) Set(i int) {
	ctx, cancel := r.factory.opContext()
	defer cancel()

	if err := r.factory.client.SetBit(ctx, r.key, int64(i), 1).Err(); err != nil {
		r.factory.fail(err)
		return
	}
	if r.factory.ttl > 0 {
		if err := r.factory.client.Expire(ctx, r.key, r.factory.ttl).Err(); err != nil {
			r.factory.fail(err)
		}
	}
}

func (r *redisBits) Size() int { return r.size }

// Clone copies the bitmap server-side (COPY ... REPLACE) under a fresh key.
// A source key with no bits set does not exist in Redis; COPY then copies
// nothing, which is exactly an empty clone.
func (r *redisBits) Clone() BitVector {
	next := &redisBits{factory: r.factory, key: r.factory.nextKey(), size: r.size}

	ctx, cancel := r.factory.opContext()
	defer cancel()
	if err := r.factory.client.Copy(ctx, r.key, next.key, 0, true).Err(); err != nil {
		r.factory.fail(err)
	}
	return next
}

// Key returns the Redis key holding this vector's bitmap.
func (r *redisBits) Key() string { return r.key }
