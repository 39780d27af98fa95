package guides

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"nietladen/internal/models"
	"nietladen/internal/store/memstore"
)

type sentMail struct {
	kind       string
	to         []string
	name       string
	modelNames []string
	reason     string
	guideID    int64
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeNotifier) record(m sentMail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return f.err
}

func (f *fakeNotifier) NotifySubmission(_ context.Context, emails []string, name string, modelNames []string, guideID int64) error {
	return f.record(sentMail{kind: "submission", to: emails, name: name, modelNames: modelNames, guideID: guideID})
}

func (f *fakeNotifier) NotifyApproval(_ context.Context, email, name string, modelNames []string) error {
	return f.record(sentMail{kind: "approval", to: []string{email}, name: name, modelNames: modelNames})
}

func (f *fakeNotifier) NotifyRejection(_ context.Context, email, name string, modelNames []string, reason string) error {
	return f.record(sentMail{kind: "rejection", to: []string{email}, name: name, modelNames: modelNames, reason: reason})
}

func (f *fakeNotifier) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		out = append(out, m.kind)
	}
	return out
}

type fakeVerifier struct {
	enabled bool
	ok      bool
	err     error
	calls   int
}

func (f *fakeVerifier) Enabled() bool { return f.enabled }

func (f *fakeVerifier) Verify(context.Context, string) (bool, error) {
	f.calls++
	return f.ok, f.err
}

type fakeImages struct {
	mu      sync.Mutex
	deleted []string
	failOn  string
}

func (f *fakeImages) DeleteByURL(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if url == f.failOn {
		return errors.New("bucket unavailable")
	}
	f.deleted = append(f.deleted, url)
	return nil
}

// moderator is the first user newFixture creates, so it always gets ID 1.
var moderator = models.Caller{UserID: 1, Roles: []models.Role{models.RoleModerator}}

type fixture struct {
	svc      *Service
	store    *memstore.MemoryStore
	notifier *fakeNotifier
	verifier *fakeVerifier
	images   *fakeImages
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memstore.New(),
		notifier: &fakeNotifier{},
		verifier: &fakeVerifier{},
		images:   &fakeImages{},
	}
	f.svc = New(f.store, f.notifier, zaptest.NewLogger(t), WithVerifier(f.verifier), WithImageRemover(f.images))

	ctx := context.Background()
	mod := &models.User{Email: "mod@example.nl", Name: "Moderator", Roles: []models.Role{models.RoleModerator}}
	require.NoError(t, f.store.CreateUser(ctx, mod))
	require.Equal(t, moderator.UserID, mod.ID)
	return f
}

func (f *fixture) brand(t *testing.T, name, slug string, status models.Status) *models.Brand {
	t.Helper()
	b := &models.Brand{Name: name, Slug: slug, Status: status}
	require.NoError(t, f.store.CreateBrand(context.Background(), b))
	return b
}

func (f *fixture) model(t *testing.T, b *models.Brand, name, slug string, status models.Status) *models.VehicleModel {
	t.Helper()
	m := &models.VehicleModel{BrandID: b.ID, Name: name, Slug: slug, Status: status}
	require.NoError(t, f.store.CreateModel(context.Background(), m))
	return m
}

func str(s string) *string { return &s }

func oneStep() []StepInput {
	return []StepInput{{StepNumber: 1, Description: "Open the charging menu"}}
}
