// Package queryapi implements C9, the read-path HTTP handler over stored
// proxied-message metadata described in spec.md §4.8/§6.3.
package queryapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/sandwich-relay/sandwich/internal/docstore"
	"github.com/sandwich-relay/sandwich/internal/kvstore"
)

// jsonAPI mirrors the teacher's client.go convention of aliasing a
// jsoniter codec over the package rather than calling encoding/json
// directly on the response-writing hot path.
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	pendingPollInterval = 100 * time.Millisecond
	pendingPollAttempts = 50
)

// API wires the router handlers to their collaborators.
type API struct {
	auth  *Authenticator
	docs  docstore.Store
	store *kvstore.Store
	log   zerolog.Logger
}

// New builds an API.
func New(auth *Authenticator, docs docstore.Store, store *kvstore.Store, log zerolog.Logger) *API {
	return &API{auth: auth, docs: docs, store: store, log: log}
}

// Router builds the chi mux described in spec.md §6.3.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthcheck", a.handleHealthcheck)
	r.Get("/messages/{channel}/{id}", a.handleGetMessage)
	r.Head("/messages/{channel}/{id}", a.handleHeadMessage)
	return r
}

func (a *API) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channelID := chi.URLParam(r, "channel")
	messageID := chi.URLParam(r, "id")

	if err := a.auth.Authenticate(ctx, r.Header.Get("Authorization")); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if messageIDStale(messageID, time.Now()) {
		w.WriteHeader(http.StatusGone)
		return
	}

	msg, err := a.resolveMessage(ctx, channelID, messageID)
	switch {
	case errors.Is(err, errPending):
		w.WriteHeader(http.StatusRequestTimeout)
		return
	case errors.Is(err, docstore.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
		return
	case err != nil:
		a.log.Error().Err(err).Str("channel", channelID).Str("message", messageID).Msg("query api lookup failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	body := messageResponse{Message: msg}
	if includeMember(r) && msg.GuildID != "" {
		if member, found, err := a.lookupMember(ctx, msg.GuildID, msg.AuthorID); err == nil && found {
			body.Member = member
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = jsonAPI.NewEncoder(w).Encode(body)
}

func (a *API) handleHeadMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channelID := chi.URLParam(r, "channel")
	messageID := chi.URLParam(r, "id")

	if err := a.auth.Authenticate(ctx, r.Header.Get("Authorization")); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	pending, err := a.store.Exists(ctx, pendingKey(channelID, messageID))
	if err == nil && pending {
		w.WriteHeader(http.StatusOK)
		return
	}

	if _, err := a.docs.FindMessage(ctx, channelID, messageID); errors.Is(err, docstore.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
}

var errPending = errors.New("queryapi: proxy pending")

// resolveMessage looks up a message, polling while a pending-proxy marker
// exists per spec.md §4.8 and §9 open question (c).
func (a *API) resolveMessage(ctx context.Context, channelID, messageID string) (*docstore.Message, error) {
	msg, err := a.docs.FindMessage(ctx, channelID, messageID)
	if err == nil {
		return msg, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return nil, err
	}

	pending, pendingErr := a.store.Exists(ctx, pendingKey(channelID, messageID))
	if pendingErr != nil || !pending {
		return nil, docstore.ErrNotFound
	}

	for attempt := 0; attempt < pendingPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pendingPollInterval):
		}

		msg, err := a.docs.FindMessage(ctx, channelID, messageID)
		if err == nil {
			return msg, nil
		}
		if !errors.Is(err, docstore.ErrNotFound) {
			return nil, err
		}
	}

	return nil, errPending
}

func (a *API) lookupMember(ctx context.Context, guildID, userID string) (json.RawMessage, bool, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	found, err := a.store.JSONGet(ctx, fmt.Sprintf("discord:member:%s:%s", guildID, userID), &envelope)
	if err != nil || !found {
		return nil, found, err
	}
	return envelope.Data, true, nil
}

func pendingKey(channelID, messageID string) string {
	return fmt.Sprintf("pending_proxy:%s:%s", channelID, messageID)
}

func includeMember(r *http.Request) bool {
	v := r.URL.Query().Get("member")
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

type messageResponse struct {
	*docstore.Message
	Member json.RawMessage `json:"member,omitempty"`
}
