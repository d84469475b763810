package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"exercise-tracker/internal/domain"
	"exercise-tracker/internal/storage"
)

// ErrArchiveDisabled is returned when no archive bucket is configured.
var ErrArchiveDisabled = errors.New("log archive is not configured")

// Archive describes one exported snapshot of a user's log.
type Archive struct {
	Key        string
	Location   string
	Size       int64
	ArchivedAt time.Time
	URL        string
}

// ArchiveService exports full user logs to object storage.
type ArchiveService interface {
	ArchiveUser(ctx context.Context, userID string) (*Archive, error)
	ListArchives(ctx context.Context, userID string) ([]Archive, error)
}

// ArchiveConfig locates archives in the bucket.
type ArchiveConfig struct {
	Bucket    string
	KeyPrefix string
	URLExpiry time.Duration
}

type archiveService struct {
	users UserService
	store storage.Service
	cfg   ArchiveConfig
	now   func() time.Time
}

func NewArchiveService(users UserService, store storage.Service, cfg ArchiveConfig) ArchiveService {
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = 15 * time.Minute
	}
	return &archiveService{
		users: users,
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

type archiveEntry struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

type archiveDocument struct {
	ID         string         `json:"_id"`
	Username   string         `json:"username"`
	Count      int            `json:"count"`
	ArchivedAt string         `json:"archived_at"`
	Log        []archiveEntry `json:"log"`
}

func (s *archiveService) ArchiveUser(ctx context.Context, userID string) (*Archive, error) {
	if s.store == nil || s.cfg.Bucket == "" {
		return nil, ErrArchiveDisabled
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	archivedAt := s.now().UTC()
	doc := archiveDocument{
		ID:         user.ID,
		Username:   user.Username,
		Count:      user.LogCount,
		ArchivedAt: archivedAt.Format(time.RFC3339),
		Log:        make([]archiveEntry, len(user.Log)),
	}
	for i, entry := range user.Log {
		doc.Log[i] = archiveEntry{
			Description: entry.Description,
			Duration:    entry.Duration,
			Date:        entry.Date.UTC().Format(domain.DateLayout),
		}
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal archive: %w", err)
	}

	key := path.Join(s.userPrefix(user.ID), archivedAt.Format("20060102T150405Z")+".json")
	location, err := s.store.PutObject(ctx, body, storage.PutOptions{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("archive user %s: %w", user.ID, err)
	}

	return &Archive{
		Key:        key,
		Location:   location,
		Size:       int64(len(body)),
		ArchivedAt: archivedAt,
	}, nil
}

func (s *archiveService) ListArchives(ctx context.Context, userID string) ([]Archive, error) {
	if s.store == nil || s.cfg.Bucket == "" {
		return nil, ErrArchiveDisabled
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	objects, err := s.store.ListObjects(ctx, s.cfg.Bucket, s.userPrefix(user.ID)+"/")
	if err != nil {
		return nil, fmt.Errorf("list archives for %s: %w", user.ID, err)
	}

	archives := make([]Archive, 0, len(objects))
	for _, obj := range objects {
		archive := Archive{
			Key:      obj.Key,
			Location: fmt.Sprintf("s3://%s/%s", s.cfg.Bucket, obj.Key),
			Size:     obj.Size,
		}
		if obj.LastModified != nil {
			archive.ArchivedAt = obj.LastModified.UTC()
		}
		url, err := s.store.GetObjectURL(ctx, s.cfg.Bucket, obj.Key, s.cfg.URLExpiry)
		if err != nil {
			return nil, err
		}
		archive.URL = url
		archives = append(archives, archive)
	}
	sort.Slice(archives, func(i, j int) bool { return archives[i].Key < archives[j].Key })
	return archives, nil
}

func (s *archiveService) userPrefix(userID string) string {
	if s.cfg.KeyPrefix == "" {
		return userID
	}
	return s.cfg.KeyPrefix + "/" + userID
}
