package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/repository"
)

// Shared in-memory stubs for service tests.

type userRepoStub struct {
	users      map[string]domain.User
	saveErr    error
	existsErr  error
	reassigned []string
}

func newUserRepoStub(users ...domain.User) *userRepoStub {
	stub := &userRepoStub{users: make(map[string]domain.User)}
	for _, user := range users {
		stub.users[user.ID] = user
	}
	return stub
}

func (m *userRepoStub) GetByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := m.users[id]; ok {
		return &user, nil
	}
	return nil, repository.ErrNotFound
}

func (m *userRepoStub) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *userRepoStub) GetByFacebookID(_ context.Context, facebookID string) (*domain.User, error) {
	for _, user := range m.users {
		if user.FacebookID != nil && *user.FacebookID == facebookID {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *userRepoStub) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, err := m.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (m *userRepoStub) Save(_ context.Context, user domain.User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	for id, existing := range m.users {
		if existing.Email == user.Email && id != user.ID {
			return repository.ErrDuplicateEmail
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *userRepoStub) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *userRepoStub) ReassignRole(_ context.Context, fromRoleID, toRoleID string) (int64, error) {
	var moved int64
	for id, user := range m.users {
		if user.RoleID == fromRoleID {
			user.RoleID = toRoleID
			m.users[id] = user
			moved++
		}
	}
	m.reassigned = append(m.reassigned, fromRoleID+"->"+toRoleID)
	return moved, nil
}

func (m *userRepoStub) findByEmail(email string) (domain.User, bool) {
	for _, user := range m.users {
		if user.Email == email {
			return user, true
		}
	}
	return domain.User{}, false
}

type roleRepoStub struct {
	roles   map[string]domain.Role
	deleted []string
}

func newRoleRepoStub(roles ...domain.Role) *roleRepoStub {
	stub := &roleRepoStub{roles: make(map[string]domain.Role)}
	for _, role := range roles {
		stub.roles[role.ID] = role
	}
	return stub
}

func (m *roleRepoStub) GetByID(_ context.Context, id string) (*domain.Role, error) {
	if role, ok := m.roles[id]; ok {
		return &role, nil
	}
	return nil, repository.ErrNotFound
}

func (m *roleRepoStub) GetByName(_ context.Context, name string) (*domain.Role, error) {
	for _, role := range m.roles {
		if strings.EqualFold(role.Name, name) {
			return &role, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *roleRepoStub) Save(_ context.Context, role domain.Role) error {
	m.roles[role.ID] = role
	return nil
}

func (m *roleRepoStub) Delete(_ context.Context, id string) error {
	if _, ok := m.roles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.roles, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *roleRepoStub) List(_ context.Context) ([]domain.Role, error) {
	roles := make([]domain.Role, 0, len(m.roles))
	for _, role := range m.roles {
		roles = append(roles, role)
	}
	return roles, nil
}

type mailerStub struct {
	sendErr error
	sent    []sentMail
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *mailerStub) Send(_ context.Context, to, subject, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type eventsStub struct {
	registered      []domain.UserRegisteredEvent
	loggedIn        []domain.UserLoggedInEvent
	passwordChanges []domain.PasswordChangedEvent
	publishErr      error
}

func (m *eventsStub) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.registered = append(m.registered, event)
	return nil
}

func (m *eventsStub) PublishUserLoggedIn(_ context.Context, event domain.UserLoggedInEvent) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.loggedIn = append(m.loggedIn, event)
	return nil
}

func (m *eventsStub) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.passwordChanges = append(m.passwordChanges, event)
	return nil
}

type verifierStub struct {
	profile domain.ExternalProfile
	err     error
}

func (m *verifierStub) Verify(_ context.Context, _ string) (domain.ExternalProfile, error) {
	if m.err != nil {
		return domain.ExternalProfile{}, m.err
	}
	return m.profile, nil
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
