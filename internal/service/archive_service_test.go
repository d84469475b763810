package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"exercise-tracker/internal/domain"
	"exercise-tracker/internal/storage"
)

type fakeStorage struct {
	objects map[string][]byte
	meta    map[string]storage.PutOptions
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, meta: map[string]storage.PutOptions{}}
}

func (f *fakeStorage) PutObject(ctx context.Context, body []byte, opts storage.PutOptions) (string, error) {
	f.objects[opts.Key] = body
	f.meta[opts.Key] = opts
	return "s3://" + opts.Bucket + "/" + opts.Key, nil
}

func (f *fakeStorage) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for key, body := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(body))})
		}
	}
	return out, nil
}

func (f *fakeStorage) GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	return "https://example.test/" + bucket + "/" + key, nil
}

func TestArchiveUserUploadsFullLog(t *testing.T) {
	ctx := context.Background()
	users, exercises, _ := newServices(t)
	alice := createUser(t, users, "alice")
	_, err := exercises.AppendEntry(ctx, AppendEntryInput{UserID: alice.ID, Description: "run", Duration: "30", Date: "2024-01-01"})
	require.NoError(t, err)

	store := newFakeStorage()
	svc := NewArchiveService(users, store, ArchiveConfig{Bucket: "logs", KeyPrefix: "/exports/"})
	svc.(*archiveService).now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	archive, err := svc.ArchiveUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "exports/"+alice.ID+"/20240601T120000Z.json", archive.Key)
	require.Equal(t, "s3://logs/"+archive.Key, archive.Location)
	require.Equal(t, "application/json", store.meta[archive.Key].ContentType)

	var doc archiveDocument
	require.NoError(t, json.Unmarshal(store.objects[archive.Key], &doc))
	require.Equal(t, alice.ID, doc.ID)
	require.Equal(t, 1, doc.Count)
	require.Equal(t, "2024-01-01", doc.Log[0].Date)

	listed, err := svc.ListArchives(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, archive.Key, listed[0].Key)
	require.Contains(t, listed[0].URL, archive.Key)
}

func TestArchiveServiceErrors(t *testing.T) {
	ctx := context.Background()
	users, _, _ := newServices(t)

	disabled := NewArchiveService(users, newFakeStorage(), ArchiveConfig{})
	_, err := disabled.ArchiveUser(ctx, uuid.NewString())
	require.ErrorIs(t, err, ErrArchiveDisabled)

	svc := NewArchiveService(users, newFakeStorage(), ArchiveConfig{Bucket: "logs"})
	_, err = svc.ArchiveUser(ctx, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = svc.ListArchives(ctx, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}
