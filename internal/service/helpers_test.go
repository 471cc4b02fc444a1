package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/model"
	"qms-compliance-be/internal/pkg/logger"
	"qms-compliance-be/internal/repository/contract"
	"qms-compliance-be/internal/repository/unitofwork"
	"qms-compliance-be/pkg/database"
	pkgEvents "qms-compliance-be/pkg/events"
	"qms-compliance-be/pkg/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLiteDB("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.AllCapaModels()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []pkgEvents.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event pkgEvents.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

var errInjected = errors.New("injected insert failure")

// failingFactory wraps the real factory and breaks selected child inserts.
type failingFactory struct {
	unitofwork.RepositoryFactory
	failPlan       bool
	failAction     bool
	failAttachment bool
}

func (f *failingFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &failingUnitOfWork{UnitOfWork: f.RepositoryFactory.NewUnitOfWork(ctx), factory: f}
}

type failingUnitOfWork struct {
	unitofwork.UnitOfWork
	factory *failingFactory
}

func (u *failingUnitOfWork) CapaPlanRepository() contract.CapaPlanRepository {
	repo := u.UnitOfWork.CapaPlanRepository()
	if u.factory.failPlan {
		return failingCapaPlanRepository{repo}
	}
	return repo
}

func (u *failingUnitOfWork) ActionRepository() contract.ActionRepository {
	repo := u.UnitOfWork.ActionRepository()
	if u.factory.failAction {
		return failingActionRepository{repo}
	}
	return repo
}

func (u *failingUnitOfWork) ActionAttachmentRepository() contract.ActionAttachmentRepository {
	repo := u.UnitOfWork.ActionAttachmentRepository()
	if u.factory.failAttachment {
		return failingAttachmentRepository{repo}
	}
	return repo
}

type failingCapaPlanRepository struct{ contract.CapaPlanRepository }

func (failingCapaPlanRepository) Create(context.Context, *entity.CapaPlan) error { return errInjected }

type failingActionRepository struct{ contract.ActionRepository }

func (failingActionRepository) Create(context.Context, *entity.Action) error { return errInjected }

type failingAttachmentRepository struct {
	contract.ActionAttachmentRepository
}

func (failingAttachmentRepository) Create(context.Context, *entity.ActionAttachment) error {
	return errInjected
}

// failingStore rejects every upload.
type failingStore struct{}

func (failingStore) Bucket() string { return "broken" }

func (failingStore) Upload(context.Context, string, io.Reader, int64, string, storage.UploadOptions) error {
	return errors.New("storage unavailable")
}

func (failingStore) URL(context.Context, string, time.Duration) (string, error) {
	return "", errors.New("storage unavailable")
}

type workflowFixture struct {
	db        *gorm.DB
	factory   *failingFactory
	publisher *recordingPublisher
	workflow  ICapaWorkflowService
	query     ICapaQueryService
}

func newWorkflowFixture(t *testing.T, atomic bool, store storage.ObjectStore) *workflowFixture {
	t.Helper()
	db := newTestDB(t)
	factory := &failingFactory{RepositoryFactory: unitofwork.NewRepositoryFactory(db)}
	publisher := &recordingPublisher{}
	log := logger.NewNopLogger()
	opts := CapaWorkflowOptions{AtomicChains: atomic, AttachmentURLExpiry: time.Minute}

	return &workflowFixture{
		db:        db,
		factory:   factory,
		publisher: publisher,
		workflow:  NewCapaWorkflowService(factory, store, NewCapaEventPublisher(publisher, log), log, opts),
		query:     NewCapaQueryService(factory, store, log, opts),
	}
}

func (f *workflowFixture) count(t *testing.T, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(m)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
