package idempotency

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/web"
	"github.com/rs/zerolog"
)

// Header names.
const (
	HeaderKey      = "Idempotency-Key"
	HeaderReplayed = "Idempotent-Replayed"
)

// Middleware errors.
var (
	// ErrInProgress is returned while the first request with a key is still being served.
	ErrInProgress = errors.New("a request with this idempotency key is in progress")
	// ErrKeyReused is returned when a key comes back with a different request body.
	ErrKeyReused = errors.New("idempotency key was already used with a different request")
)

const maxKeyLen = 255

// Store keeps the state of idempotency keys.
type Store interface {
	Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (Record, State, error)
	Save(ctx context.Context, key string, rec Record, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// scope keeps keys of different users and routes apart.
func scope(c *gin.Context, key string) string {
	user := "-"
	if p, ok := middleware.Payload(c); ok {
		user = p.Username
	}

	return user + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
}

// fingerprint hashes the request body and puts it back for the handler.
func fingerprint(c *gin.Context) (string, error) {
	var body []byte

	if c.Request.Body != nil {
		var err error

		body, err = io.ReadAll(c.Request.Body)
		if err != nil {
			return "", err
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	sum := sha256.Sum256(body)

	return hex.EncodeToString(sum[:]), nil
}

// Middleware serves requests carrying an Idempotency-Key at most once within ttl.
// Requests without the header pass through. A key sent again with another body is
// rejected with 422. Server errors are not stored so the client may retry them.
func Middleware(store Store, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderKey)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		l := zerolog.Ctx(ctx)

		if len(key) > maxKeyLen {
			c.AbortWithStatusJSON(http.StatusBadRequest, web.Response{Error: "idempotency key is too long"})
			return
		}

		key = scope(c, key)

		fp, err := fingerprint(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, web.Response{Error: "cannot read request body"})
			return
		}

		rec, state, err := store.Get(ctx, key)
		if err != nil {
			l.Error().Err(err).Send()
			c.AbortWithStatusJSON(http.StatusInternalServerError, web.Response{Error: errorspkg.ErrInternal.Error()})

			return
		}

		if state != StateNew && rec.Fingerprint != fp {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, web.Response{Error: ErrKeyReused.Error()})
			return
		}

		switch state {
		case StateDone:
			c.Header(HeaderReplayed, "true")
			c.Data(rec.Status, rec.ContentType, rec.Body)
			c.Abort()

			return
		case StatePending:
			c.AbortWithStatusJSON(http.StatusConflict, web.Response{Error: ErrInProgress.Error()})
			return
		}

		reserved, err := store.Reserve(ctx, key, fp, ttl)
		if err != nil {
			l.Error().Err(err).Send()
			c.AbortWithStatusJSON(http.StatusInternalServerError, web.Response{Error: errorspkg.ErrInternal.Error()})

			return
		}

		if !reserved {
			c.AbortWithStatusJSON(http.StatusConflict, web.Response{Error: ErrInProgress.Error()})
			return
		}

		w := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		// The request context may be done by now.
		bg := context.WithoutCancel(ctx)

		if w.Status() >= http.StatusInternalServerError {
			if err := store.Release(bg, key); err != nil {
				l.Error().Err(err).Send()
			}

			return
		}

		rec = Record{
			Fingerprint: fp,
			Status:      w.Status(),
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		}

		if err := store.Save(bg, key, rec, ttl); err != nil {
			l.Error().Err(err).Send()
		}
	}
}
