// Package auth tracks the signed-in identity: the bearer token and the user it resolves to.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pulsecart/internal/models"
	"pulsecart/internal/queries"
	"pulsecart/internal/querycache"
	"pulsecart/internal/services"
	"pulsecart/internal/tokenstore"
)

type State struct {
	Token           string       `json:"-" yaml:"-"`
	User            *models.User `json:"user" yaml:"user"`
	IsLoading       bool         `json:"is_loading" yaml:"is_loading"`
	IsAuthenticated bool         `json:"is_authenticated" yaml:"is_authenticated"`
}

type Session struct {
	mu    sync.RWMutex
	token string

	store tokenstore.Store
	api   *services.Client
	cache *querycache.Cache
	log   zerolog.Logger
}

// NewSession restores the persisted token; an expired one is discarded.
func NewSession(ctx context.Context, store tokenstore.Store, api *services.Client, cache *querycache.Cache, log zerolog.Logger) *Session {
	s := &Session{
		store: store,
		api:   api,
		cache: cache,
		log:   log.With().Str("component", "auth").Logger(),
	}

	token, err := store.Get(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read stored token")
		return s
	}
	if token != "" && tokenstore.Expired(token, time.Now()) {
		s.log.Info().Msg("stored token expired, signing out")
		if err := store.Clear(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to clear expired token")
		}
		return s
	}
	s.token = token
	return s
}

// Token is the current bearer token, "" when anonymous.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Login exchanges credentials for a token, then persists it and drops the
// identity-scoped entries in one step so readers never pair the new token
// with the previous user's data. Request errors are returned unchanged.
func (s *Session) Login(ctx context.Context, creds models.LoginPayload) error {
	res, err := s.api.Login(ctx, creds)
	if err != nil {
		return err
	}
	if res == nil || res.AccessToken == "" {
		return errors.New("login response carried no access token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(ctx, res.AccessToken); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	s.token = res.AccessToken
	s.cache.Invalidate(queries.MeKey)
	s.cache.Invalidate(queries.CartKey)

	s.log.Info().Str("email", creds.Email).Msg("signed in")
	return nil
}

func (s *Session) Register(ctx context.Context, creds models.RegisterPayload) (*models.User, error) {
	return s.api.Register(ctx, creds)
}

// Logout forgets the token and every user-scoped entry.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.Clear(ctx)
	s.token = ""
	s.cache.Remove(queries.MeKey)
	s.cache.Remove(queries.CartKey)
	s.cache.Remove(queries.OrdersKey)

	if err != nil {
		return fmt.Errorf("clear stored token: %w", err)
	}
	s.log.Info().Msg("signed out")
	return nil
}

// User resolves the signed-in user; nil without a token or when the API rejects it.
func (s *Session) User(ctx context.Context) (*models.User, error) {
	if s.Token() == "" {
		return nil, nil
	}
	return querycache.Ensure(ctx, s.cache, queries.Me(s.api))
}

// State resolves the user and reports the combined auth state.
func (s *Session) State(ctx context.Context) (State, error) {
	token := s.Token()
	user, err := s.User(ctx)
	if err != nil {
		return State{Token: token}, err
	}
	return State{
		Token:           token,
		User:            user,
		IsAuthenticated: token != "" && user != nil,
	}, nil
}

// Current reports the auth state from the cache without touching the network.
func (s *Session) Current() State {
	token := s.Token()
	return stateFrom(token, s.cache.Snapshot(queries.MeKey))
}

// Watch calls onChange whenever the resolved user changes. The me query
// only runs while a token is present.
func (s *Session) Watch(onChange func(State)) (State, func()) {
	token := s.Token()
	snap, cancel := querycache.Subscribe(s.cache, queries.Me(s.api),
		querycache.SubscribeOptions[*models.User]{Disabled: token == ""},
		func(snap querycache.Snapshot) {
			onChange(stateFrom(s.Token(), snap))
		})
	return stateFrom(token, snap), cancel
}

func stateFrom(token string, snap querycache.Snapshot) State {
	if token == "" {
		return State{}
	}
	user, _ := querycache.Data[*models.User](snap)
	pending := snap.Invalidated && snap.Status != querycache.StatusError
	if snap.Invalidated {
		// The cached user belongs to the token in place before the last login.
		user = nil
	}
	return State{
		Token:           token,
		User:            user,
		IsLoading:       snap.Fetching || snap.Status == querycache.StatusIdle || pending,
		IsAuthenticated: user != nil,
	}
}
