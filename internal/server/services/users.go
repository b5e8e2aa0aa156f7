package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/staffdesk/internal/common"
	"github.com/dmitrijs2005/staffdesk/internal/dbx"
	"github.com/dmitrijs2005/staffdesk/internal/logging"
	"github.com/dmitrijs2005/staffdesk/internal/server/auth"
	"github.com/dmitrijs2005/staffdesk/internal/server/config"
	"github.com/dmitrijs2005/staffdesk/internal/server/models"
	"github.com/dmitrijs2005/staffdesk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/staffdesk/internal/server/storage"
)

// TokenPair is an access token with the refresh token that renews it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserDetails is a user with its profile; Profile is nil for non-employees.
type UserDetails struct {
	User       *models.User
	Profile    *models.Profile
	PictureURL string
}

// UserUpdate is the editable part of a user record.
type UserUpdate struct {
	UserName string
	Email    string
}

// UserService authenticates callers and manages user records.
type UserService struct {
	db                           DB
	repomanager                  repomanager.RepositoryManager
	pictures                     storage.PictureStore
	log                          logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
}

// NewUserService constructs a UserService. Token secret and lifetimes come
// from cfg; pictures may be nil when no user is ever deleted.
func NewUserService(db DB, m repomanager.RepositoryManager, pictures storage.PictureStore, log logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		pictures:                     pictures,
		log:                          log.With("module", "users"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

// Login checks the credentials and issues a token pair. It records the login
// time on success.
func (s *UserService) Login(ctx context.Context, userName, password string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUserName(ctx, userName)
	if err != nil {
		return nil, common.Internal(err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.Fail(common.KindUnauthenticated, MsgBadCredentials)
	}

	if err := repo.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		return nil, common.Internal(err)
	}

	return s.generateTokenPair(ctx, s.db, user)
}

// RefreshToken exchanges a valid refresh token for a new pair. The old token
// is deleted in the same transaction the new one is stored in; when another
// request deleted it first, the exchange is refused.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		return nil, common.Internal(fmt.Errorf("error searching refresh token: %w", err))
	}
	if token == nil || token.Expires.Before(s.now()) {
		return nil, &common.Error{Kind: common.KindUnauthenticated, Text: MsgBadRefreshToken, Err: common.ErrRefreshTokenExpired}
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, token.UserID)
	if err != nil {
		return nil, common.Internal(err)
	}
	if user == nil {
		return nil, common.Fail(common.KindUnauthenticated, MsgBadRefreshToken)
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return &common.Error{Kind: common.KindUnauthenticated, Text: MsgBadRefreshToken, Err: err}
			}
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		p, err := s.generateTokenPair(ctx, tx, user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		var cerr *common.Error
		if errors.As(err, &cerr) {
			return nil, cerr
		}
		return nil, common.Internal(err)
	}

	return pair, nil
}

func (s *UserService) generateTokenPair(ctx context.Context, db dbx.DBTX, user *models.User) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(user.ID, user.IsStaff, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.Internal(err)
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.Internal(err)
	}

	err = s.repomanager.RefreshTokens(db).Create(ctx, user.ID, refreshToken, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, common.Internal(err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Authenticate resolves an access token to the Principal of a user that still
// exists. The staff flag is taken from the database, not from the token.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (models.Principal, error) {
	claims, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		text := "Given token not valid for any token type"
		if errors.Is(err, common.ErrTokenExpired) {
			text = "Token is expired"
		}
		return models.Principal{}, &common.Error{Kind: common.KindUnauthenticated, Text: text, Err: err}
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		return models.Principal{}, common.Internal(err)
	}
	if user == nil {
		return models.Principal{}, common.Fail(common.KindUnauthenticated, "User not found")
	}

	return models.PrincipalOf(user), nil
}

// IsAdmin reports the caller's staff flag.
func (s *UserService) IsAdmin(p models.Principal) bool {
	return p.IsStaff
}

// Me returns the caller's own record.
func (s *UserService) Me(ctx context.Context, p models.Principal) (*UserDetails, error) {
	return s.details(ctx, p.UserID)
}

// Get returns any user by id. Any authenticated caller may read any user.
func (s *UserService) Get(ctx context.Context, _ models.Principal, id int64) (*UserDetails, error) {
	return s.details(ctx, id)
}

func (s *UserService) details(ctx context.Context, id int64) (*UserDetails, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, common.Internal(err)
	}
	if user == nil {
		return nil, common.Fail(common.KindNotFound, MsgUserNotFound)
	}

	profile, err := s.repomanager.Profiles(s.db).GetByUserID(ctx, id)
	if err != nil {
		return nil, common.Internal(err)
	}

	d := &UserDetails{User: user, Profile: profile}
	if profile != nil {
		d.PictureURL = pictureURL(ctx, s.pictures, s.log, profile.PictureKey)
	}
	return d, nil
}

// Update changes the username and email of any user.
func (s *UserService) Update(ctx context.Context, _ models.Principal, id int64, in UserUpdate) (*UserDetails, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, common.Internal(err)
	}
	if user == nil {
		return nil, common.Fail(common.KindNotFound, MsgUserNotFound)
	}

	user.UserName = in.UserName
	user.Email = in.Email
	if err := repo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, common.Fail(common.KindConflict, MsgUserNameTaken)
		case errors.Is(err, common.ErrorNotFound):
			return nil, common.Fail(common.KindNotFound, MsgUserNotFound)
		}
		return nil, common.Internal(err)
	}

	return s.details(ctx, id)
}

// Delete removes any user by id together with everything that references it.
func (s *UserService) Delete(ctx context.Context, _ models.Principal, id int64) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, common.Internal(err)
	}
	if user == nil {
		return nil, common.Fail(common.KindNotFound, MsgUserNotFound)
	}

	profile, err := s.repomanager.Profiles(s.db).GetByUserID(ctx, id)
	if err != nil {
		return nil, common.Internal(err)
	}

	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Fail(common.KindNotFound, MsgUserNotFound)
		}
		return nil, common.Internal(err)
	}

	if profile != nil {
		removePicture(ctx, s.pictures, s.log, profile.PictureKey)
	}
	s.log.Info(ctx, "user deleted", "user_id", id)
	return user, nil
}

// CreateAdmin creates a staff user. It backs the bootstrap CLI and needs no
// principal.
func (s *UserService) CreateAdmin(ctx context.Context, userName, email, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.Internal(err)
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		UserName:     userName,
		Email:        email,
		PasswordHash: hash,
		IsStaff:      true,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.Fail(common.KindConflict, MsgUserNameTaken)
		}
		return nil, common.Internal(err)
	}

	s.log.Info(ctx, "admin created", "user_id", user.ID, "username", user.UserName)
	return user, nil
}
