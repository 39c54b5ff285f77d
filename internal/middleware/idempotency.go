package middleware

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
)

// IdempotencyKeyHeader is the request header naming a retry-safe operation.
const IdempotencyKeyHeader = "Idempotency-Key"

// IdempotencyStore remembers responses to POST and PATCH requests that
// carried an Idempotency-Key. Entries are keyed by a fingerprint of caller,
// key, method, path and body, so reusing a key with a different body is a
// new request.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*idempotencyEntry
	ttl     time.Duration
	now     func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

type idempotencyEntry struct {
	status    int
	headers   http.Header
	body      []byte
	expiresAt time.Time
	done      chan struct{}
	complete  bool
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration // How long to keep a response (default 24h)
	Cleanup time.Duration // Expired entry sweep interval (default 1h)
}

// NewIdempotencyStore creates a store and starts its sweeper.
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = time.Hour
	}

	s := &IdempotencyStore{
		entries: make(map[string]*idempotencyEntry),
		ttl:     cfg.TTL,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go s.sweep(cfg.Cleanup)
	return s
}

// Stop ends the sweeper. Safe to call more than once.
func (s *IdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *IdempotencyStore) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.dropExpired()
		case <-s.stopCh:
			return
		}
	}
}

func (s *IdempotencyStore) dropExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if e.complete && e.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// Len returns the number of remembered requests, in flight included.
func (s *IdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// fingerprint hashes the request identity with BLAKE2b-256. Fields are
// length-prefixed so adjacent values cannot run together.
func fingerprint(caller, key, method, path string, body []byte) string {
	h, _ := blake2b.New256(nil)
	for _, part := range [][]byte{[]byte(caller), []byte(key), []byte(method), []byte(path), body} {
		var n [8]byte
		binary.LittleEndian.PutUint64(n[:], uint64(len(part)))
		h.Write(n[:])
		h.Write(part)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// begin returns the finished entry for key, or registers a new in-flight
// entry and returns it with owner=true. A caller that finds an in-flight
// entry waits for it.
func (s *IdempotencyStore) begin(key string) (entry *idempotencyEntry, owner bool) {
	for {
		s.mu.Lock()
		e, ok := s.entries[key]
		switch {
		case !ok || (e.complete && !e.expiresAt.After(s.now())):
			e = &idempotencyEntry{done: make(chan struct{})}
			s.entries[key] = e
			s.mu.Unlock()
			return e, true
		case e.complete:
			s.mu.Unlock()
			return e, false
		}
		s.mu.Unlock()

		<-e.done
	}
}

// finish stores the captured response. Server errors are forgotten so the
// client can retry them.
func (s *IdempotencyStore) finish(key string, e *idempotencyEntry, w *captureWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.status >= 500 {
		delete(s.entries, key)
	} else {
		e.status = w.status
		e.headers = w.Header().Clone()
		e.body = w.body.Bytes()
		e.expiresAt = s.now().Add(s.ttl)
		e.complete = true
	}
	close(e.done)
}

type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func replay(w http.ResponseWriter, e *idempotencyEntry) {
	for k, vals := range e.headers {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(e.status)
	_, _ = w.Write(e.body)
}

// Idempotency replays the stored response for a repeated POST or PATCH
// carrying the same Idempotency-Key. Concurrent duplicates wait for the
// first one to finish.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idemKey := r.Header.Get(IdempotencyKeyHeader)
			if idemKey == "" || (r.Method != http.MethodPost && r.Method != http.MethodPatch) {
				next.ServeHTTP(w, r)
				return
			}

			caller := GetUserID(r.Context())
			if caller == "" {
				caller = clientIP(r)
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := fingerprint(caller, idemKey, r.Method, r.URL.Path, body)
			entry, owner := store.begin(key)
			if !owner {
				replay(w, entry)
				return
			}

			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				if rec := recover(); rec != nil {
					cw.status = http.StatusInternalServerError
					store.finish(key, entry, cw)
					panic(rec)
				}
				store.finish(key, entry, cw)
			}()
			next.ServeHTTP(cw, r)
		})
	}
}
