package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/risk"
)

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.VerificationSession
	failNext error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]domain.VerificationSession)}
}

func (s *fakeSessionStore) Create(_ context.Context, session *domain.VerificationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *fakeSessionStore) Get(_ context.Context, id string) (*domain.VerificationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", fmt.Errorf("id %s", id))
	}
	copied := session
	return &copied, nil
}

func (s *fakeSessionStore) Update(_ context.Context, session *domain.VerificationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *fakeSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *fakeSessionStore) stored(id string) domain.VerificationSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

type fakeStorage struct {
	mu       sync.Mutex
	objects  map[string][]byte
	deleted  []string
	openErr  error
	saveErr  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = buf
	return nil
}

func (s *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// fakeDecoder maps filenames to rasters or errors.
type fakeDecoder struct {
	rasters map[string]*domain.Raster
	errs    map[string]error
}

func (d *fakeDecoder) Decode(_ context.Context, filename string, _ []byte) (*domain.Raster, error) {
	if err, ok := d.errs[filename]; ok {
		return nil, err
	}
	if raster, ok := d.rasters[filename]; ok {
		return raster, nil
	}
	return &domain.Raster{Image: testImage(64, 40)}, nil
}

// fakeNormalizer returns the image unchanged with a fixed blur score.
type fakeNormalizer struct {
	blur float64
}

func (n *fakeNormalizer) Normalize(img image.Image) (image.Image, float64) {
	return img, n.blur
}

type fakeOCR struct {
	text string
	err  error
}

func (o *fakeOCR) ExtractText(_ context.Context, _ image.Image) (string, error) {
	return o.text, o.err
}

type fakeFaces struct {
	result   domain.FaceMatchResult
	err      error
	compared int
}

func (f *fakeFaces) Compare(_ context.Context, _, _ image.Image) (domain.FaceMatchResult, error) {
	f.compared++
	if f.err != nil {
		return domain.FaceMatchResult{}, f.err
	}
	return f.result, nil
}

type fakePublisher struct {
	mu      sync.Mutex
	records []domain.DecisionRecord
	err     error
}

func (p *fakePublisher) PublishSessionDecided(_ context.Context, rec domain.DecisionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.records = append(p.records, rec)
	return nil
}

func (p *fakePublisher) SubscribeSessionDecided(context.Context, func(context.Context, domain.DecisionRecord) error) error {
	return nil
}

type fakeGraph struct {
	prior  int
	err    error
	hashes []string
}

func (g *fakeGraph) RecordPresentation(_ context.Context, _, identifierHash string) (int, error) {
	if g.err != nil {
		return 0, g.err
	}
	g.hashes = append(g.hashes, identifierHash)
	return g.prior, nil
}

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	return img
}

type fixture struct {
	uc        *VerificationUseCase
	sessions  *fakeSessionStore
	storage   *fakeStorage
	decoder   *fakeDecoder
	ocr       *fakeOCR
	faces     *fakeFaces
	publisher *fakePublisher
	graph     *fakeGraph
}

func newFixture() *fixture {
	f := &fixture{
		sessions:  newFakeSessionStore(),
		storage:   newFakeStorage(),
		decoder:   &fakeDecoder{rasters: map[string]*domain.Raster{}, errs: map[string]error{}},
		ocr:       &fakeOCR{},
		faces:     &fakeFaces{},
		publisher: &fakePublisher{},
		graph:     nil,
	}
	f.uc = NewVerificationUseCase(
		f.sessions,
		f.storage,
		f.decoder,
		&fakeNormalizer{blur: 150},
		f.ocr,
		f.faces,
		risk.New(nil),
		f.publisher,
		nil,
	)
	return f
}

// withGraph rebuilds the use case with an identifier graph attached.
func (f *fixture) withGraph(g *fakeGraph) {
	f.graph = g
	f.uc = NewVerificationUseCase(
		f.sessions,
		f.storage,
		f.decoder,
		&fakeNormalizer{blur: 150},
		f.ocr,
		f.faces,
		risk.New(nil),
		f.publisher,
		g,
	)
}
