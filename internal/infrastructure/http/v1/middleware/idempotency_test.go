package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core/apperror"
	"ledger/internal/infrastructure/storage/postgres"
)

type storedKey struct {
	hash    string
	status  int
	ctype   string
	body    []byte
	pending bool
}

// memoryIdempotency mirrors the AcquireKey contract of postgres.IdempotencyStore.
type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]*storedKey
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: map[string]*storedKey{}}
}

func (m *memoryIdempotency) AcquireKey(_ context.Context, key, _, _, requestHash string) (*postgres.IdempotencyReplay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.keys[key]
	if !ok {
		m.keys[key] = &storedKey{hash: requestHash, pending: true}
		return nil, nil
	}
	if k.hash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key)
	}
	if k.pending {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	return &postgres.IdempotencyReplay{StatusCode: k.status, ContentType: k.ctype, Body: k.body}, nil
}

func (m *memoryIdempotency) finish(key string, status int, ctype string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.keys[key]
	k.pending, k.status, k.ctype = false, status, ctype
	k.body = append([]byte(nil), body...)
	return nil
}

func (m *memoryIdempotency) CompleteKey(_ context.Context, key string, status int, ctype string, body []byte) error {
	return m.finish(key, status, ctype, body)
}

func (m *memoryIdempotency) FailKey(_ context.Context, key string, status int, ctype string, body []byte) error {
	return m.finish(key, status, ctype, body)
}

func (m *memoryIdempotency) ReleaseKey(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func newIdempotentRouter(store IdempotencyStore, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(), UserContext(), Idempotency(store))
	r.POST("/things", handler)
	return r
}

func post(r *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/things", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysSuccess(t *testing.T) {
	calls := 0
	r := newIdempotentRouter(newMemoryIdempotency(), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"ref": calls})
	})

	first := post(r, "k1", `{"a":1}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := post(r, "k1", `{"a":1}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 1, calls)
}

func TestIdempotency_ReplaysClientError(t *testing.T) {
	calls := 0
	r := newIdempotentRouter(newMemoryIdempotency(), func(c *gin.Context) {
		calls++
		_ = c.Error(apperror.NewValidation("bad input"))
	})

	first := post(r, "k2", `{}`)
	require.Equal(t, http.StatusBadRequest, first.Code)
	assert.Contains(t, first.Body.String(), apperror.CodeValidation)

	second := post(r, "k2", `{}`)
	assert.Equal(t, http.StatusBadRequest, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)
}

func TestIdempotency_ServerErrorReleasesKey(t *testing.T) {
	calls := 0
	r := newIdempotentRouter(newMemoryIdempotency(), func(c *gin.Context) {
		calls++
		if calls == 1 {
			_ = c.Error(apperror.NewStorage(assert.AnError))
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	assert.Equal(t, http.StatusInternalServerError, post(r, "k3", `{}`).Code)
	assert.Equal(t, http.StatusOK, post(r, "k3", `{}`).Code)
	assert.Equal(t, 2, calls)
}

func TestIdempotency_KeyReuseWithOtherBody(t *testing.T) {
	r := newIdempotentRouter(newMemoryIdempotency(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	require.Equal(t, http.StatusOK, post(r, "k4", `{"a":1}`).Code)
	w := post(r, "k4", `{"a":2}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeIdempotency)
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	calls := 0
	r := newIdempotentRouter(newMemoryIdempotency(), func(c *gin.Context) {
		calls++
		c.Status(http.StatusNoContent)
	})

	post(r, "", `{}`)
	post(r, "", `{}`)
	assert.Equal(t, 2, calls)
}
