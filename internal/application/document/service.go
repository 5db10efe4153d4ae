package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	s3infra "github.com/KenzoYff/evently-ux-platform-94/internal/infrastructure/s3"
	"github.com/KenzoYff/evently-ux-platform-94/internal/pkg/id"
)

// DefaultMaxSize caps uploads when no limit is configured.
const DefaultMaxSize int64 = 10 << 20

const urlTTL = 15 * time.Minute

var errTooLarge = errors.New("document too large")

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

type Service interface {
	List(ctx context.Context, userID, role, eventID string) ([]domain.Document, error)
	Upload(ctx context.Context, userID, role, eventID string, in UploadInput) (*domain.Document, error)
	Get(ctx context.Context, userID, role, documentID string) (*domain.Document, error)
	URL(ctx context.Context, userID, role, documentID string) (string, error)
	Download(ctx context.Context, userID, role, documentID string) (io.ReadCloser, *domain.Document, error)
	Delete(ctx context.Context, userID, role, documentID string) error
}

type documentStore interface {
	Put(ctx context.Context, d *domain.Document) error
	Get(ctx context.Context, documentID string) (*domain.Document, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.Document, error)
	SoftDelete(ctx context.Context, documentID string) error
}

type eventReader interface {
	Get(ctx context.Context, eventID string) (*domain.Event, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo    documentStore
	events  eventReader
	objects objectStore
	maxSize int64
}

type ServiceDeps struct {
	DocumentRepo documentStore
	EventRepo    eventReader
	Objects      objectStore
	MaxSize      int64
}

func NewService(deps ServiceDeps) Service {
	maxSize := deps.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &service{repo: deps.DocumentRepo, events: deps.EventRepo, objects: deps.Objects, maxSize: maxSize}
}

func (s *service) event(ctx context.Context, userID, role, eventID string) (*domain.Event, error) {
	e, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !e.CanView(userID, role) {
		return nil, fmt.Errorf("not a member of this event: %w", domain.ErrForbidden)
	}
	return e, nil
}

func (s *service) List(ctx context.Context, userID, role, eventID string) ([]domain.Document, error) {
	if _, err := s.event(ctx, userID, role, eventID); err != nil {
		return nil, err
	}
	docs, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	return docs, nil
}

func (s *service) Upload(ctx context.Context, userID, role, eventID string, in UploadInput) (*domain.Document, error) {
	if in.Size > s.maxSize {
		return nil, fmt.Errorf("document exceeds %d bytes: %w", s.maxSize, domain.ErrBadRequest)
	}
	if _, err := s.event(ctx, userID, role, eventID); err != nil {
		return nil, err
	}
	name := s3infra.SanitizeFilename(in.Filename)
	contentType := in.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = s3infra.DetectContentType(name)
	}
	key := s3infra.ObjectKey(fmt.Sprintf("events/%s/documents", eventID), name, time.Now())

	hasher := sha256.New()
	body := &cappedReader{r: io.TeeReader(in.Reader, hasher), limit: s.maxSize}
	if _, err := s.objects.Upload(ctx, key, body, contentType); err != nil {
		if errors.Is(err, errTooLarge) || body.exceeded {
			s.discard(ctx, key)
			return nil, fmt.Errorf("document exceeds %d bytes: %w", s.maxSize, domain.ErrBadRequest)
		}
		return nil, err
	}
	if body.exceeded {
		s.discard(ctx, key)
		return nil, fmt.Errorf("document exceeds %d bytes: %w", s.maxSize, domain.ErrBadRequest)
	}

	now := time.Now().UTC()
	d := &domain.Document{
		DocumentID:  id.New(),
		EventID:     eventID,
		Name:        name,
		Object:      key,
		ContentType: contentType,
		Size:        body.read,
		Hash:        hex.EncodeToString(hasher.Sum(nil)),
		UploadedBy:  userID,
		Enable:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, d); err != nil {
		s.discard(ctx, key)
		return nil, err
	}
	return d, nil
}

func (s *service) discard(ctx context.Context, key string) {
	if err := s.objects.Delete(ctx, key); err != nil {
		slog.Warn("could not remove orphaned document object", "key", key, "err", err)
	}
}

func (s *service) Get(ctx context.Context, userID, role, documentID string) (*domain.Document, error) {
	d, err := s.repo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !d.Enable {
		return nil, fmt.Errorf("document not found: %w", domain.ErrNotFound)
	}
	if _, err := s.event(ctx, userID, role, d.EventID); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) URL(ctx context.Context, userID, role, documentID string) (string, error) {
	d, err := s.Get(ctx, userID, role, documentID)
	if err != nil {
		return "", err
	}
	return s.objects.PresignedURL(ctx, d.Object, urlTTL)
}

func (s *service) Download(ctx context.Context, userID, role, documentID string) (io.ReadCloser, *domain.Document, error) {
	d, err := s.Get(ctx, userID, role, documentID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.objects.Download(ctx, d.Object)
	if err != nil {
		return nil, nil, err
	}
	return rc, d, nil
}

// Delete removes the object and disables the record. The uploader or an
// event manager may delete.
func (s *service) Delete(ctx context.Context, userID, role, documentID string) error {
	d, err := s.repo.Get(ctx, documentID)
	if err != nil {
		return err
	}
	if !d.Enable {
		return fmt.Errorf("document not found: %w", domain.ErrNotFound)
	}
	e, err := s.event(ctx, userID, role, d.EventID)
	if err != nil {
		return err
	}
	if d.UploadedBy != userID && !e.CanManage(userID, role) {
		return fmt.Errorf("only the uploader or event owner can delete: %w", domain.ErrForbidden)
	}
	if err := s.objects.Delete(ctx, d.Object); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, documentID)
}

// cappedReader counts bytes and fails once more than limit are read.
type cappedReader struct {
	r         io.Reader
	limit     int64
	read      int64
	exceeded  bool
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.exceeded {
		return 0, errTooLarge
	}
	n, err := c.r.Read(p)
	c.read += int64(n)
	if c.read > c.limit {
		c.exceeded = true
		return n, errTooLarge
	}
	return n, err
}
