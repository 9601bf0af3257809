package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/signverse/signverse-backend/internal/repository/memory"
	"github.com/signverse/signverse-backend/internal/session"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeMailer struct {
	mu     sync.Mutex
	tokens map[string][]string
	err    error
	calls  int
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{tokens: make(map[string][]string)}
}

func (m *fakeMailer) SendVerificationEmail(_ context.Context, to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.tokens[to] = append(m.tokens[to], token)
	return nil
}

func (m *fakeMailer) lastToken(t *testing.T, to string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	tokens := m.tokens[to]
	require.NotEmpty(t, tokens, "no verification email sent to %s", to)
	return tokens[len(tokens)-1]
}

func (m *fakeMailer) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return p.err
}

type fixture struct {
	store    *memory.Store
	mailer   *fakeMailer
	clock    *testClock
	sessions *session.Issuer
	reg      *RegistrationService
	auth     *AuthService
	events   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	mailer := newFakeMailer()
	clock := newTestClock()
	hasher := NewBcryptHasher(bcrypt.MinCost)
	sessions := session.NewIssuer("test-secret", 30*24*time.Hour).WithClock(clock.Now)
	events := &recordingPublisher{}

	return &fixture{
		store:    store,
		mailer:   mailer,
		clock:    clock,
		sessions: sessions,
		events:   events,
		reg: NewRegistrationService(store, hasher, NewRandomTokenGenerator(32), mailer, sessions, 24*time.Hour).
			WithClock(clock.Now).
			WithEvents(events),
		auth: NewAuthService(store, hasher, sessions).WithClock(clock.Now),
	}
}

func (f *fixture) registerAndVerify(t *testing.T, name, email, password string) *VerifyResult {
	t.Helper()
	ctx := context.Background()
	_, err := f.reg.Register(ctx, RegisterInput{FullName: name, Email: email, Password: password, Role: "deaf"})
	require.NoError(t, err)
	res, err := f.reg.VerifyEmail(ctx, f.mailer.lastToken(t, email))
	require.NoError(t, err)
	return res
}

var errSMTPDown = errors.New("smtp: connection refused")
