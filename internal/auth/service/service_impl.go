package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	authdomain "github.com/AndreaSpaggiari/sito-andrea/internal/auth/domain"
	"github.com/AndreaSpaggiari/sito-andrea/internal/auth/password"
	"github.com/AndreaSpaggiari/sito-andrea/internal/clock"
	"github.com/AndreaSpaggiari/sito-andrea/pkg/db"
)

const (
	sessionTokenBytes = 32
	sessionTTL        = 7 * 24 * time.Hour
	minPasswordLength = 8
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  authdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node
	repo  authdomain.Repository
}

func New(p Params) authdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("auth.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) EnsureProfile(ctx context.Context, req authdomain.EnsureProfileRequest) (*authdomain.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, authdomain.ErrInvalidCredentials
	}

	existing, err := s.repo.FindUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	role := req.Role
	if !role.Valid() {
		role = authdomain.RoleMember
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = defaultDisplayName(email)
	}

	user := &authdomain.User{
		ID:          s.genID.Generate(),
		Email:       email,
		DisplayName: displayName,
		Role:        role,
	}
	if pw := strings.TrimSpace(req.Password); pw != "" {
		if len(pw) < minPasswordLength {
			return nil, authdomain.ErrInvalidCredentials
		}
		hashed, err := password.Hash(pw)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = &hashed
	}
	now := s.clock.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := s.repo.InsertUser(ctx, s.db, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return s.findExisting(ctx, email)
		}
		return nil, err
	}

	s.log.Info("profile created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(role)),
	)
	return user, nil
}

func (s *Service) findExisting(ctx context.Context, email string) (*authdomain.User, error) {
	user, err := s.repo.FindUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, authdomain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, authdomain.ErrInvalidCredentials
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, authdomain.ErrInvalidCredentials
	}

	user, err := s.repo.FindUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == nil || !password.Verify(req.Password, *user.PasswordHash) {
		return nil, authdomain.ErrInvalidCredentials
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	session := &authdomain.Session{
		ID:         s.genID.Generate(),
		UserID:     user.ID,
		TokenHash:  hashToken(rawToken),
		UserAgent:  strings.TrimSpace(req.UserAgent),
		IPAddress:  strings.TrimSpace(req.IPAddress),
		ExpiresAt:  now.Add(sessionTTL),
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := s.repo.InsertSession(ctx, s.db, session); err != nil {
		return nil, err
	}

	return &authdomain.LoginResult{
		User:      user,
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil
	}
	session, err := s.repo.FindSessionByTokenHash(ctx, s.db, hashToken(token))
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	return s.repo.RevokeSession(ctx, s.db, session.ID, s.clock.Now().UTC())
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*authdomain.User, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, authdomain.ErrInvalidCredentials
	}

	session, err := s.repo.FindSessionByTokenHash(ctx, s.db, hashToken(token))
	if err != nil {
		return nil, err
	}
	if session == nil || session.RevokedAt != nil {
		return nil, authdomain.ErrInvalidCredentials
	}

	now := s.clock.Now().UTC()
	if now.After(session.ExpiresAt) {
		return nil, authdomain.ErrSessionExpired
	}

	user, err := s.repo.FindUserByID(ctx, s.db, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, authdomain.ErrInvalidCredentials
	}

	if err := s.repo.TouchSession(ctx, s.db, session.ID, now); err != nil {
		s.log.Warn("session touch failed", zap.Error(err))
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id snowflake.ID) (*authdomain.User, error) {
	user, err := s.repo.FindUserByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, authdomain.ErrUserNotFound
	}
	return user, nil
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}

func defaultDisplayName(email string) string {
	name, _, _ := strings.Cut(email, "@")
	if name == "" {
		return email
	}
	return name
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
