package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/templui/filesmanager/internal/repository"
)

// PingFunc reports whether a backing store answers.
type PingFunc func(ctx context.Context) error

type Status struct {
	Redis bool `json:"redis"`
	DB    bool `json:"db"`
}

type Stats struct {
	Users int64 `json:"users"`
	Files int64 `json:"files"`
}

// AppService reports store health and usage counts.
type AppService struct {
	pingRedis      PingFunc
	pingDB         PingFunc
	userRepository repository.UserRepository
	fileRepository repository.FileRepository
}

func NewAppService(pingRedis, pingDB PingFunc, userRepository repository.UserRepository, fileRepository repository.FileRepository) *AppService {
	return &AppService{
		pingRedis:      pingRedis,
		pingDB:         pingDB,
		userRepository: userRepository,
		fileRepository: fileRepository,
	}
}

func (s *AppService) Status(ctx context.Context) Status {
	return Status{
		Redis: alive(ctx, "redis", s.pingRedis),
		DB:    alive(ctx, "db", s.pingDB),
	}
}

func (s *AppService) Stats(ctx context.Context) (Stats, error) {
	users, err := s.userRepository.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count users: %w", err)
	}

	files, err := s.fileRepository.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count files: %w", err)
	}

	return Stats{Users: users, Files: files}, nil
}

func alive(ctx context.Context, name string, ping PingFunc) bool {
	if ping == nil {
		return false
	}
	err := ping(ctx)
	if err != nil {
		slog.Warn("store is not reachable", "store", name, "error", err)
		return false
	}
	return true
}
