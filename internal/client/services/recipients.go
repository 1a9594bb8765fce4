// Package services contains application services for the gophdirectory client.
// This file defines the recipient service: the stale-aware read-through cache
// that resolves users through the local store first and the directory second.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdirectory/internal/client/client"
	"github.com/dmitrijs2005/gophdirectory/internal/client/models"
	"github.com/dmitrijs2005/gophdirectory/internal/common"
	"github.com/dmitrijs2005/gophdirectory/internal/logging"
)

// RecipientService resolves users, groups, contacts and blocks for the CLI.
//
// Contract:
//   - User lookups return the cached profile when it is fresh, or any cached
//     profile while offline. Otherwise the directory is asked, the answer
//     overwrites the cache and is returned.
//   - Offline with nothing cached yields client.ErrLocalDataNotAvailable.
//   - Local store errors are returned wrapped; remote errors are logged and
//     returned as is.
//   - Groups, contacts and blocks are local only.
//
// Implementations are safe for concurrent use. There is no single-flight:
// concurrent lookups of one id may all reach the directory.
type RecipientService interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByPaymentAddress(ctx context.Context, address string) (*models.User, error)

	GetGroup(ctx context.Context, id string) (*models.Group, error)
	SaveGroup(ctx context.Context, group *models.Group) error

	SearchOffline(ctx context.Context, query string) ([]*models.User, error)
	SearchOnline(ctx context.Context, query string) ([]*models.User, error)

	IsContact(ctx context.Context, user *models.User) (bool, error)
	AddContact(ctx context.Context, user *models.User) error
	RemoveContact(ctx context.Context, user *models.User) error
	ListContacts(ctx context.Context) ([]*models.Contact, error)

	IsBlocked(ctx context.Context, ownerAddress string) (bool, error)
	Block(ctx context.Context, ownerAddress string) error
	Unblock(ctx context.Context, ownerAddress string) error
	ListBlocked(ctx context.Context) ([]*models.BlockedUser, error)

	GetTimestamp(ctx context.Context) (*models.ServerTime, error)
	Report(ctx context.Context, report *models.Report) error

	// ClearAll wipes the local user cache and asks the client to drop its
	// response cache. Only the local part can fail the call.
	ClearAll(ctx context.Context) error
}

type recipientService struct {
	client          client.Client
	repos           *client.Repositories
	conn            Connectivity
	log             logging.Logger
	now             func() time.Time
	refreshInterval time.Duration
}

// Option configures a RecipientService built by NewRecipientService.
type Option func(*recipientService)

// WithLogger sets the logger used for lookup diagnostics. Defaults to a no-op.
func WithLogger(l logging.Logger) Option {
	return func(s *recipientService) { s.log = l }
}

// WithClock replaces time.Now as the source of cache timestamps and staleness
// checks.
func WithClock(now func() time.Time) Option {
	return func(s *recipientService) { s.now = now }
}

// WithRefreshInterval sets how old a cached profile may get before an online
// lookup refetches it. Non-positive values keep the default.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *recipientService) {
		if d > 0 {
			s.refreshInterval = d
		}
	}
}

// NewRecipientService returns a RecipientService that resolves profiles through
// the local cache in repos, consulting c only when conn reports online.
func NewRecipientService(c client.Client, repos *client.Repositories, conn Connectivity, opts ...Option) RecipientService {
	s := &recipientService{
		client:          c,
		repos:           repos,
		conn:            conn,
		log:             logging.Nop{},
		now:             time.Now,
		refreshInterval: models.DefaultRefreshInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// satisfied is the freshness predicate applied to every candidate.
func (s *recipientService) satisfied(u *models.User, online bool) bool {
	return u != nil && (!online || !u.NeedsRefresh(s.now(), s.refreshInterval))
}

func observe(lookup, source string, start time.Time) {
	recipientResolution.WithLabelValues(lookup, source).Inc()
	recipientResolutionDuration.WithLabelValues(lookup, source).Observe(time.Since(start).Seconds())
}

// remember stamps a freshly fetched user and overwrites its cached row.
func (s *recipientService) remember(ctx context.Context, u *models.User) (*models.User, error) {
	u.CachedAt = s.now()
	if err := s.repos.Users.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("cache user[%s]: %w", u.ToshiID, err)
	}
	return u, nil
}

func (s *recipientService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const lookup = "id"
	start := time.Now()
	online := s.conn.Online()

	cached, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		observe(lookup, "error", start)
		return nil, fmt.Errorf("read cached user[%s]: %w", id, err)
	}
	if s.satisfied(cached, online) {
		observe(lookup, "cache", start)
		return cached, nil
	}
	if !online {
		observe(lookup, "offline_miss", start)
		return nil, client.ErrLocalDataNotAvailable
	}

	fetched, err := s.client.GetUser(ctx, id)
	if err != nil {
		observe(lookup, "error", start)
		s.log.Warn(ctx, "user fetch failed", "id", id, "error", err)
		return nil, err
	}
	u, err := s.remember(ctx, fetched)
	if err != nil {
		observe(lookup, "error", start)
		return nil, err
	}
	observe(lookup, "network", start)
	s.log.Debug(ctx, "user refreshed", "id", id, "toshi_id", u.ToshiID)
	return u, nil
}

// GetUserByUsername relies on the directory accepting a username wherever it
// accepts a canonical id, and on the cache lookup matching both.
func (s *recipientService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.GetUserByID(ctx, username)
}

func (s *recipientService) GetUserByPaymentAddress(ctx context.Context, address string) (*models.User, error) {
	const lookup = "payment_address"
	start := time.Now()
	online := s.conn.Online()

	cached, err := s.repos.Users.GetByPaymentAddress(ctx, address)
	if err != nil {
		observe(lookup, "error", start)
		return nil, fmt.Errorf("read cached user by payment address[%s]: %w", address, err)
	}
	if s.satisfied(cached, online) {
		observe(lookup, "cache", start)
		return cached, nil
	}
	if !online {
		observe(lookup, "offline_miss", start)
		return nil, client.ErrLocalDataNotAvailable
	}

	found, err := s.client.SearchByPaymentAddress(ctx, address)
	if err != nil {
		observe(lookup, "error", start)
		s.log.Warn(ctx, "payment address search failed", "address", address, "error", err)
		return nil, err
	}
	if len(found) == 0 {
		if cached != nil {
			observe(lookup, "cache", start)
			return cached, nil
		}
		observe(lookup, "not_found", start)
		return nil, fmt.Errorf("user with payment address[%s]: %w", address, common.ErrorNotFound)
	}
	if len(found) > 1 {
		s.log.Debug(ctx, "payment address matched several users, using the first", "address", address, "count", len(found))
	}

	u, err := s.remember(ctx, found[0])
	if err != nil {
		observe(lookup, "error", start)
		return nil, err
	}
	observe(lookup, "network", start)
	return u, nil
}

func (s *recipientService) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	g, err := s.repos.Groups.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read group[%s]: %w", id, err)
	}
	if g == nil {
		return nil, fmt.Errorf("group[%s]: %w", id, common.ErrorNotFound)
	}
	return g, nil
}

func (s *recipientService) SaveGroup(ctx context.Context, g *models.Group) error {
	if g == nil || g.ID == "" {
		return fmt.Errorf("group id is required: %w", common.ErrorValidation)
	}
	if g.UpdatedAt.IsZero() {
		g.UpdatedAt = s.now()
	}
	return s.repos.Groups.Save(ctx, g)
}

func (s *recipientService) SearchOffline(ctx context.Context, query string) ([]*models.User, error) {
	return s.repos.Users.QueryByUsername(ctx, query)
}

func (s *recipientService) SearchOnline(ctx context.Context, query string) ([]*models.User, error) {
	res, err := s.client.SearchByUsername(ctx, query)
	if err != nil {
		s.log.Warn(ctx, "username search failed", "query", query, "error", err)
		return nil, err
	}
	return res, nil
}

func requireUser(u *models.User) error {
	if u == nil || u.ToshiID == "" {
		return fmt.Errorf("user id is required: %w", common.ErrorValidation)
	}
	return nil
}

func (s *recipientService) IsContact(ctx context.Context, u *models.User) (bool, error) {
	if err := requireUser(u); err != nil {
		return false, err
	}
	return s.repos.Contacts.Exists(ctx, u.ToshiID)
}

func (s *recipientService) AddContact(ctx context.Context, u *models.User) error {
	if err := requireUser(u); err != nil {
		return err
	}
	return s.repos.Contacts.Save(ctx, u)
}

func (s *recipientService) RemoveContact(ctx context.Context, u *models.User) error {
	if err := requireUser(u); err != nil {
		return err
	}
	return s.repos.Contacts.Delete(ctx, u.ToshiID)
}

func (s *recipientService) ListContacts(ctx context.Context) ([]*models.Contact, error) {
	return s.repos.Contacts.List(ctx)
}

func (s *recipientService) IsBlocked(ctx context.Context, ownerAddress string) (bool, error) {
	return s.repos.Blocked.IsBlocked(ctx, ownerAddress)
}

func (s *recipientService) Block(ctx context.Context, ownerAddress string) error {
	return s.repos.Blocked.Save(ctx, ownerAddress)
}

func (s *recipientService) Unblock(ctx context.Context, ownerAddress string) error {
	return s.repos.Blocked.Delete(ctx, ownerAddress)
}

func (s *recipientService) ListBlocked(ctx context.Context) ([]*models.BlockedUser, error) {
	return s.repos.Blocked.List(ctx)
}

func (s *recipientService) GetTimestamp(ctx context.Context) (*models.ServerTime, error) {
	return s.client.GetTimestamp(ctx)
}

// Report stamps the report with the directory's clock, never the local one.
func (s *recipientService) Report(ctx context.Context, report *models.Report) error {
	if report == nil || report.UserAddress == "" {
		return fmt.Errorf("reported user address is required: %w", common.ErrorValidation)
	}
	ts, err := s.client.GetTimestamp(ctx)
	if err != nil {
		s.log.Warn(ctx, "server timestamp unavailable, report not sent", "error", err)
		return err
	}
	report.Timestamp = ts.Timestamp
	if err := s.client.ReportUser(ctx, report, ts); err != nil {
		s.log.Warn(ctx, "report submission failed", "user_address", report.UserAddress, "error", err)
		return err
	}
	s.log.Info(ctx, "user reported", "user_address", report.UserAddress)
	return nil
}

func (s *recipientService) ClearAll(ctx context.Context) error {
	if err := s.repos.Users.Clear(ctx); err != nil {
		return fmt.Errorf("clear user cache: %w", err)
	}
	if err := s.client.ClearCache(); err != nil {
		cacheClearFailures.Inc()
		s.log.Error(ctx, "failed to clear response cache", "error", err)
	}
	return nil
}
