// Package egress implements the egress governor: a forward proxy that
// rewrites outbound requests to the Discord API while enforcing the
// per-token, per-bucket rate limits tracked in internal/ratelimit.
package egress

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/sandwich-relay/sandwich/internal/pathcanon"
	"github.com/sandwich-relay/sandwich/internal/ratelimit"
)

const (
	upstreamBase = "https://discord.com"
	maxRetries   = 10
)

// hopByHop headers the governor strips before forwarding, alongside Host.
var hopByHop = map[string]bool{
	"X-Suppress-Tracer": true,
	"X-Context":         true,
}

// Governor forwards HTTP requests to Discord, serialising per bucket.
type Governor struct {
	registry *ratelimit.Registry
	client   *http.Client
	log      zerolog.Logger
}

// New builds a Governor backed by the given registry.
func New(registry *ratelimit.Registry, log zerolog.Logger) *Governor {
	return &Governor{
		registry: registry,
		client:   &http.Client{},
		log:      log,
	}
}

// ServeHTTP implements http.Handler, forwarding every method/path.
func (g *Governor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	canonicalPath := pathcanon.Canonicalize(r.URL.Path)

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	status, header, respBody, err := g.Forward(r.Context(), token, r.Method, r.URL.RequestURI(), r.Header, bodyBytes)
	if err != nil {
		g.log.Error().Err(err).Str("method", r.Method).Str("path", canonicalPath).Msg("egress transport error")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	for key, values := range header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(status)
	_, _ = w.Write(respBody)
}

// Forward runs a request through the same rate-limited path ServeHTTP
// uses, for in-process callers that have no http.Request of their own
// (the ingest orchestrator fetching /gateway/bot, for instance).
// requestURI must be the path+query Discord expects, e.g. "/api/v10/gateway/bot".
func (g *Governor) Forward(ctx context.Context, token, method, requestURI string, header http.Header, body []byte) (int, http.Header, []byte, error) {
	canonicalPath := pathcanon.Canonicalize(requestURI)
	rl := g.registry.Lookup(token, method, canonicalPath)
	return g.forwardWithRetry(ctx, rl, token, method, canonicalPath, requestURI, header, body)
}

// forwardWithRetry snapshots the bucket, sleeps out an exhausted window,
// acquires a permit, and sends the request, resending after each 429 for at
// most maxRetries attempts in all; the last 429 is returned once they are
// used up.
func (g *Governor) forwardWithRetry(ctx context.Context, rl *ratelimit.RateLimit, token, method, canonicalPath, requestURI string, header http.Header, body []byte) (int, http.Header, []byte, error) {
	snap := rl.Snapshot()
	if snap.Remaining == 0 && time.Now().Before(snap.Reset) {
		select {
		case <-time.After(time.Until(snap.Reset)):
		case <-ctx.Done():
			return 0, nil, nil, ctx.Err()
		}
	}

	rl.Acquire()
	defer rl.Release()

	var (
		status   int
		respHdr  http.Header
		respBody []byte
	)

	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, upstreamBase+requestURI, bytes.NewReader(body))
		if err != nil {
			return 0, nil, nil, err
		}
		copyForwardHeaders(req.Header, header)
		req.Host = "discord.com"

		resp, err := g.client.Do(req)
		if err != nil {
			return 0, nil, nil, err
		}

		respBody, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return 0, nil, nil, err
		}
		status = resp.StatusCode
		respHdr = resp.Header

		if status != http.StatusTooManyRequests {
			g.learn(token, method, canonicalPath, respHdr)
			return status, respHdr, respBody, nil
		}

		var rateLimited struct {
			RetryAfter float64 `json:"retry_after"`
			Global     bool    `json:"global"`
		}
		if err := json.Unmarshal(respBody, &rateLimited); err == nil && rateLimited.RetryAfter > 0 {
			select {
			case <-time.After(time.Duration(rateLimited.RetryAfter * float64(time.Second))):
			case <-ctx.Done():
				return 0, nil, nil, ctx.Err()
			}
		}
	}

	return status, respHdr, respBody, nil
}

func copyForwardHeaders(dst, src http.Header) {
	for key, values := range src {
		if key == "Host" || hopByHop[key] {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

// learn reads Discord's rate-limit headers off a non-429 response and
// updates the registry so subsequent requests on this bucket benefit.
func (g *Governor) learn(token, method, canonicalPath string, header http.Header) {
	bucket := header.Get("X-RateLimit-Bucket")
	if bucket == "" {
		return
	}

	limit, _ := strconv.Atoi(header.Get("X-RateLimit-Limit"))
	remaining, _ := strconv.Atoi(header.Get("X-RateLimit-Remaining"))
	resetAfter, _ := strconv.ParseFloat(header.Get("X-RateLimit-Reset-After"), 64)

	if limit == 0 {
		return
	}

	reset := time.Now().Add(time.Duration(resetAfter * float64(time.Second)))
	g.registry.Learn(token, method, canonicalPath, bucket, limit, remaining, reset)
}
