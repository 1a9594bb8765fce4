// Package services contains server-side business logic for the directory:
// profile lookup and publishing, signed server timestamps, user reports and
// avatar uploads.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophdirectory/internal/common"
	"github.com/dmitrijs2005/gophdirectory/internal/dbx"
	"github.com/dmitrijs2005/gophdirectory/internal/logging"
	"github.com/dmitrijs2005/gophdirectory/internal/server/auth"
	"github.com/dmitrijs2005/gophdirectory/internal/server/avatars"
	"github.com/dmitrijs2005/gophdirectory/internal/server/config"
	"github.com/dmitrijs2005/gophdirectory/internal/server/models"
	"github.com/dmitrijs2005/gophdirectory/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// SearchLimit caps SearchByUsername results.
const SearchLimit = 50

// Profile is a user as served to clients, with the avatar key replaced by a
// presigned download URL.
type Profile struct {
	*models.User
	AvatarURL string
}

type DirectoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	avatars     avatars.Presigner
	log         logging.Logger

	secretKey []byte
	window    time.Duration
	now       func() time.Time
}

func NewDirectoryService(db *sql.DB, m repomanager.RepositoryManager, p avatars.Presigner,
	cfg *config.Config, log logging.Logger) *DirectoryService {
	return &DirectoryService{
		db:          db,
		repomanager: m,
		avatars:     p,
		log:         log,
		secretKey:   []byte(cfg.SecretKey),
		window:      cfg.ReportTimestampWindow,
		now:         time.Now,
	}
}

func validation(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, msg)
}

// profile presigns the avatar of u. A presign failure only drops the URL.
func (s *DirectoryService) profile(ctx context.Context, u *models.User) *Profile {
	p := &Profile{User: u}
	if u.AvatarKey == "" {
		return p
	}
	url, err := s.avatars.PresignGet(ctx, u.AvatarKey)
	if err != nil {
		s.log.Warn(ctx, "avatar presign failed", "user", u.ID, "error", err)
		return p
	}
	p.AvatarURL = url
	return p
}

func (s *DirectoryService) profiles(ctx context.Context, users []*models.User) []*Profile {
	out := make([]*Profile, 0, len(users))
	for _, u := range users {
		out = append(out, s.profile(ctx, u))
	}
	return out
}

// GetUser finds a user by canonical id or username.
func (s *DirectoryService) GetUser(ctx context.Context, idOrUsername string) (*Profile, error) {
	if idOrUsername == "" {
		return nil, validation("id is required")
	}
	u, err := s.repomanager.Users(s.db).GetByIDOrUsername(ctx, idOrUsername)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, u), nil
}

// SearchByUsername returns up to SearchLimit users whose username starts
// with query, case-insensitively.
func (s *DirectoryService) SearchByUsername(ctx context.Context, query string) ([]*Profile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, validation("query is required")
	}
	users, err := s.repomanager.Users(s.db).SearchByUsernamePrefix(ctx, query, SearchLimit)
	if err != nil {
		return nil, err
	}
	return s.profiles(ctx, users), nil
}

func (s *DirectoryService) SearchByPaymentAddress(ctx context.Context, address string) ([]*Profile, error) {
	if address == "" {
		return nil, validation("payment address is required")
	}
	users, err := s.repomanager.Users(s.db).SearchByPaymentAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	return s.profiles(ctx, users), nil
}

// PutUser creates or overwrites a profile. A missing id is generated.
func (s *DirectoryService) PutUser(ctx context.Context, u *models.User) (*Profile, error) {
	if u == nil {
		return nil, validation("user is required")
	}
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" || strings.ContainsAny(u.Username, " \t\n") {
		return nil, validation("username must be a single non-empty word")
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	saved, err := s.repomanager.Users(s.db).Upsert(ctx, u)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "profile published", "user", saved.ID, "username", saved.Username)
	return s.profile(ctx, saved), nil
}

// IssueTimestamp returns the server time, truncated to seconds, and a token
// binding it. The token is valid for the report timestamp window.
func (s *DirectoryService) IssueTimestamp(ctx context.Context) (time.Time, string, error) {
	ts := s.now().UTC().Truncate(time.Second)
	token, err := auth.IssueTimestampToken(ts, s.secretKey, s.window)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return ts, token, nil
}

// SubmitReport stores a report against the user addressed by
// r.UserAddress. r.Timestamp must be the timestamp bound by token.
func (s *DirectoryService) SubmitReport(ctx context.Context, r *models.Report, token string) (*models.Report, error) {
	if r == nil || r.UserAddress == "" {
		return nil, validation("user address is required")
	}

	bound, err := auth.VerifyTimestampToken(token, s.secretKey, s.now())
	if err != nil {
		return nil, err
	}
	if !bound.Equal(r.Timestamp.Truncate(time.Second)) {
		return nil, common.ErrTimestampMismatch
	}

	var saved *models.Report
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).GetByIDOrUsername(ctx, r.UserAddress)
		if err != nil {
			return err
		}

		r.ID = uuid.NewString()
		r.UserID = u.ID
		r.Timestamp = bound

		saved, err = s.repomanager.Reports(tx).Create(ctx, r)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user reported", "user", saved.UserID, "report", saved.ID)
	return saved, nil
}

// AvatarUploadURL allocates a new avatar key for userID, records it and
// returns a presigned PUT URL for it.
func (s *DirectoryService) AvatarUploadURL(ctx context.Context, userID string) (string, string, error) {
	if userID == "" {
		return "", "", validation("user id is required")
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.GetByIDOrUsername(ctx, userID)
	if err != nil {
		return "", "", err
	}

	key := avatars.NewKey(u.ID, s.now().UTC())
	url, err := s.avatars.PresignPut(ctx, key)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if err := repo.SetAvatarKey(ctx, u.ID, key); err != nil {
		return "", "", err
	}

	return key, url, nil
}
