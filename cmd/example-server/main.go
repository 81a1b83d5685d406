package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/manenim/bloom-rate-limiter/pkg/bloom"
	"github.com/manenim/bloom-rate-limiter/pkg/limiter"
	"github.com/redis/go-redis/v9"
)

func main() {
	opts := []limiter.Option{limiter.WithFalsePositiveRate(0.01)}

	// With REDIS_ADDR set, the bloom filter's bits live in a shared Redis
	// bitmap instead of process memory.
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		bits, err := bloom.NewRedisBitFactory(client,
			bloom.WithPrefix("demo:bloom:"),
			bloom.WithTimeout(100*time.Millisecond),
			bloom.WithOnError(func(err error) { log.Printf("bloom storage error: %v", err) }),
		)
		if err != nil {
			log.Fatal(err)
		}
		opts = append(opts, limiter.WithBitVectorFactory(bits))
		log.Printf("Bloom bits backed by Redis at %s", redisAddr)
	}

	// Rate limit: 5 requests per 10s window per IP, sized for 10k IPs.
	l, err := limiter.New(10*time.Second, 5, 10_000, opts...)
	if err != nil {
		log.Fatal(err)
	}

	// The limiter is an immutable value; publish the current instance
	// through an atomic pointer and serialize writers with a mutex.
	var current atomic.Pointer[limiter.ProbabilisticLimiter]
	current.Store(l)
	var mu sync.Mutex

	http.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr

		dec := current.Load().ShouldAllow(ip)
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%.0f", dec.ResetIn.Seconds()))
		if !dec.Allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", dec.ResetIn.Seconds()))
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("Rate limit exceeded\n"))
			return
		}

		mu.Lock()
		current.Store(current.Load().RecordRequest(ip))
		mu.Unlock()

		w.Write([]byte("Pong!\n"))
	})

	http.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		l := current.Load()
		stats := l.Stats()
		fmt.Fprintf(w, "tracked_keys=%d window_end=%s reset_in=%s est_fp_rate=%.4f\n",
			stats.TrackedKeys, stats.WindowEnd.Format(time.RFC3339),
			stats.TimeUntilReset, l.Filter().EstimatedFalsePositiveRate())
	})

	log.Printf("Server listening on :8080")
	http.ListenAndServe(":8080", nil)
}
