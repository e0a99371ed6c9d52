// Package testutil holds stateful in-memory implementations of the domain
// collaborators, shared by service and handler tests.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/domain"
	autherror "github.com/AnthoniusHendriyanto/blogger-auth/internal/errors"
)

var (
	_ domain.CredentialStore    = (*CredentialStore)(nil)
	_ domain.DeviceSessionStore = (*DeviceStore)(nil)
	_ domain.AttemptLedger      = (*AttemptLedger)(nil)
	_ domain.AttemptPruner      = (*AttemptLedger)(nil)
	_ domain.EmailSender        = (*Mailer)(nil)
)

// CredentialStore keeps accounts keyed by id. Set *Err fields to inject
// failures; the zero value means no error.
type CredentialStore struct {
	FindErr   error
	CreateErr error
	UpdateErr error

	Accounts map[string]*domain.Account

	mu sync.Mutex
}

func NewCredentialStore(accounts ...*domain.Account) *CredentialStore {
	s := &CredentialStore{Accounts: make(map[string]*domain.Account)}
	for _, a := range accounts {
		s.Accounts[a.ID] = a
	}
	return s
}

func (s *CredentialStore) find(match func(*domain.Account) bool) (*domain.Account, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.Accounts {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *CredentialStore) FindByID(_ context.Context, id string) (*domain.Account, error) {
	return s.find(func(a *domain.Account) bool { return a.ID == id })
}

func (s *CredentialStore) FindByLogin(_ context.Context, login string) (*domain.Account, error) {
	return s.find(func(a *domain.Account) bool { return a.Login == login })
}

func (s *CredentialStore) FindByLoginOrEmail(_ context.Context, loginOrEmail string) (*domain.Account, error) {
	return s.find(func(a *domain.Account) bool { return a.Login == loginOrEmail || a.Email == loginOrEmail })
}

func (s *CredentialStore) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	return s.find(func(a *domain.Account) bool { return strings.EqualFold(a.Email, email) })
}

func (s *CredentialStore) FindByConfirmationCode(_ context.Context, code string) (*domain.Account, error) {
	if code == "" {
		return nil, nil
	}
	return s.find(func(a *domain.Account) bool { return a.EmailConfirmation.ConfirmationCode == code })
}

func (s *CredentialStore) Create(_ context.Context, account *domain.Account) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.Accounts {
		if a.Login == account.Login || strings.EqualFold(a.Email, account.Email) {
			return autherror.ErrAccountExists
		}
	}
	cp := *account
	s.Accounts[account.ID] = &cp
	return nil
}

func (s *CredentialStore) UpdateConfirmationCode(_ context.Context, email, code string, expiresAt time.Time) (bool, error) {
	if s.UpdateErr != nil {
		return false, s.UpdateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.Accounts {
		if strings.EqualFold(a.Email, email) {
			a.EmailConfirmation.ConfirmationCode = code
			a.EmailConfirmation.ExpirationDate = expiresAt
			return true, nil
		}
	}
	return false, nil
}

func (s *CredentialStore) UpdateConfirmStatus(_ context.Context, id, code string) (bool, error) {
	if s.UpdateErr != nil {
		return false, s.UpdateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Accounts[id]
	if !ok || code == "" || a.EmailConfirmation.ConfirmationCode != code {
		return false, nil
	}
	a.EmailConfirmation = domain.EmailConfirmation{IsConfirmed: true}
	return true, nil
}

func (s *CredentialStore) UpdatePasswordHash(_ context.Context, id, code, passwordHash string) (bool, error) {
	if s.UpdateErr != nil {
		return false, s.UpdateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Accounts[id]
	if !ok || code == "" || a.EmailConfirmation.ConfirmationCode != code {
		return false, nil
	}
	a.PasswordHash = passwordHash
	a.EmailConfirmation.ConfirmationCode = ""
	a.EmailConfirmation.ExpirationDate = time.Time{}
	return true, nil
}

// Account returns a copy of the stored account, or nil.
func (s *CredentialStore) Account(id string) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Accounts[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

// DeviceStore keeps device sessions keyed by device id.
type DeviceStore struct {
	UpsertErr error
	FindErr   error
	DeleteErr error

	Sessions map[string]*domain.DeviceSession

	mu sync.Mutex
}

func NewDeviceStore(sessions ...*domain.DeviceSession) *DeviceStore {
	s := &DeviceStore{Sessions: make(map[string]*domain.DeviceSession)}
	for _, ds := range sessions {
		s.Sessions[ds.DeviceID] = ds
	}
	return s
}

func (s *DeviceStore) Upsert(_ context.Context, session *domain.DeviceSession) error {
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.Sessions[session.DeviceID] = &cp
	return nil
}

func (s *DeviceStore) FindByUserAndDevice(_ context.Context, userID, deviceID string) (*domain.DeviceSession, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.Sessions[deviceID]
	if !ok || ds.UserID != userID {
		return nil, nil
	}
	cp := *ds
	return &cp, nil
}

func (s *DeviceStore) FindByDeviceID(_ context.Context, deviceID string) (*domain.DeviceSession, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.Sessions[deviceID]
	if !ok {
		return nil, nil
	}
	cp := *ds
	return &cp, nil
}

func (s *DeviceStore) ListByUser(_ context.Context, userID string) ([]domain.DeviceSession, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.DeviceSession{}
	for _, ds := range s.Sessions {
		if ds.UserID == userID {
			out = append(out, *ds)
		}
	}
	return out, nil
}

func (s *DeviceStore) Rotate(_ context.Context, session *domain.DeviceSession, expectedTokenID string) (bool, error) {
	if s.UpsertErr != nil {
		return false, s.UpsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.Sessions[session.DeviceID]
	if !ok || ds.UserID != session.UserID {
		return false, nil
	}
	if expectedTokenID != "" && ds.TokenID != expectedTokenID {
		return false, nil
	}
	ds.IssuedAt = session.IssuedAt
	ds.ExpiresAt = session.ExpiresAt
	ds.IPAddress = session.IPAddress
	ds.DeviceName = session.DeviceName
	ds.TokenID = session.TokenID
	return true, nil
}

func (s *DeviceStore) DeleteByUserAndDevice(_ context.Context, userID, deviceID string) (bool, error) {
	if s.DeleteErr != nil {
		return false, s.DeleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.Sessions[deviceID]
	if !ok || ds.UserID != userID {
		return false, nil
	}
	delete(s.Sessions, deviceID)
	return true, nil
}

func (s *DeviceStore) DeleteAllExcept(_ context.Context, userID, deviceID string) (int64, error) {
	if s.DeleteErr != nil {
		return 0, s.DeleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, ds := range s.Sessions {
		if ds.UserID == userID && id != deviceID {
			delete(s.Sessions, id)
			n++
		}
	}
	return n, nil
}

func (s *DeviceStore) DeleteByID(_ context.Context, deviceID string) (bool, error) {
	if s.DeleteErr != nil {
		return false, s.DeleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Sessions[deviceID]; !ok {
		return false, nil
	}
	delete(s.Sessions, deviceID)
	return true, nil
}

// Count returns the number of stored sessions.
func (s *DeviceStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Sessions)
}

type AttemptLedger struct {
	CountErr  error
	AppendErr error

	Attempts []domain.Attempt

	mu sync.Mutex
}

func NewAttemptLedger() *AttemptLedger {
	return &AttemptLedger{}
}

func (l *AttemptLedger) CountRecent(_ context.Context, ip, route string, since time.Time) (int, error) {
	if l.CountErr != nil {
		return 0, l.CountErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, a := range l.Attempts {
		if a.IPAddress == ip && a.Route == route && !a.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (l *AttemptLedger) Append(_ context.Context, attempt *domain.Attempt) error {
	if l.AppendErr != nil {
		return l.AppendErr
	}
	l.mu.Lock()
	l.Attempts = append(l.Attempts, *attempt)
	l.mu.Unlock()
	return nil
}

func (l *AttemptLedger) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.Attempts[:0]
	var n int64
	for _, a := range l.Attempts {
		if a.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, a)
	}
	l.Attempts = kept
	return n, nil
}

func (l *AttemptLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Attempts)
}

// SentMail is one message captured by Mailer.
type SentMail struct {
	To       string
	Code     string
	Recovery bool
}

// Mailer records every message instead of sending it. SendErr makes every
// send fail.
type Mailer struct {
	SendErr error

	Sent []SentMail

	mu sync.Mutex
}

func (m *Mailer) SendConfirmationCode(_ context.Context, toEmail, code string) error {
	return m.record(SentMail{To: toEmail, Code: code})
}

func (m *Mailer) SendRecoveryCode(_ context.Context, toEmail, code string) error {
	return m.record(SentMail{To: toEmail, Code: code, Recovery: true})
}

func (m *Mailer) record(mail SentMail) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.mu.Lock()
	m.Sent = append(m.Sent, mail)
	m.mu.Unlock()
	return nil
}

// Last returns the most recent message, or false when nothing was sent.
func (m *Mailer) Last() (SentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentMail{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}
