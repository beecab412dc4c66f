package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	chatdomain "github.com/AndreaSpaggiari/sito-andrea/internal/chat/domain"
	"github.com/AndreaSpaggiari/sito-andrea/internal/chat/hub"
	"github.com/AndreaSpaggiari/sito-andrea/internal/clock"
	"github.com/AndreaSpaggiari/sito-andrea/internal/config"
)

const maxBodyLength = 2000

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  chatdomain.Repository
	Hub   *hub.Hub
	Cfg   config.Config
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	genID       *snowflake.Node
	repo        chatdomain.Repository
	hub         *hub.Hub
	historySize int
}

func New(p Params) chatdomain.Service {
	historySize := p.Cfg.ChatHistorySize
	if historySize <= 0 {
		historySize = 50
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("chat.service"),
		clock:       p.Clock,
		genID:       p.GenID,
		repo:        p.Repo,
		hub:         p.Hub,
		historySize: historySize,
	}
}

func (s *Service) History(ctx context.Context, room string, limit int) ([]chatdomain.Message, error) {
	if limit <= 0 || limit > s.historySize {
		limit = s.historySize
	}
	return s.repo.ListRecent(ctx, s.db, normalizeRoom(room), limit)
}

func (s *Service) Post(ctx context.Context, req chatdomain.PostRequest) (*chatdomain.Message, error) {
	if req.UserID == 0 {
		return nil, chatdomain.ErrInvalidID
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, chatdomain.ErrEmptyBody
	}
	if len(body) > maxBodyLength {
		return nil, chatdomain.ErrBodyTooLong
	}

	message := &chatdomain.Message{
		ID:          s.genID.Generate(),
		Room:        normalizeRoom(req.Room),
		UserID:      req.UserID,
		DisplayName: req.DisplayName,
		Body:        body,
		SentAt:      s.clock.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, message); err != nil {
		return nil, err
	}

	s.hub.Publish(message.Room, chatdomain.Event{
		Kind:        chatdomain.EventMessage,
		Room:        message.Room,
		UserID:      message.UserID,
		DisplayName: message.DisplayName,
		Body:        message.Body,
		At:          message.SentAt,
	})
	return message, nil
}

func normalizeRoom(room string) string {
	room = strings.ToLower(strings.TrimSpace(room))
	if room == "" {
		return chatdomain.DefaultRoom
	}
	return room
}
