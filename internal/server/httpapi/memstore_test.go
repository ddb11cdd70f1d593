package httpapi

// In-memory repositories backing the route tests. They follow the same
// contracts as the Postgres implementations, including sentinel errors, so
// handlers and services can be exercised end to end without a database.

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/messagely/messagely/internal/common"
	"github.com/messagely/messagely/internal/dbx"
	"github.com/messagely/messagely/internal/server/models"
	messagesrepo "github.com/messagely/messagely/internal/server/repositories/messages"
	usersrepo "github.com/messagely/messagely/internal/server/repositories/users"
)

type memStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	messages map[int64]*models.Message
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*models.User),
		messages: make(map[int64]*models.Message),
		nextID:   1,
	}
}

func (m *memStore) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (m *memStore) Users(db dbx.DBTX) usersrepo.Repository { return (*memUsersRepo)(m) }

func (m *memStore) Messages(db dbx.DBTX) messagesrepo.Repository { return (*memMessagesRepo)(m) }

type memUsersRepo memStore

func (r *memUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.Username]; ok {
		return nil, common.ErrorDuplicateUser
	}

	now := time.Now()
	u.JoinAt = now
	u.LastLoginAt = &now

	stored := *u
	r.users[u.Username] = &stored
	return u, nil
}

func (r *memUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[username]
	if !ok {
		return nil, common.ErrorUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *memUsersRepo) UpdateLoginTimestamp(ctx context.Context, username string) (*models.LoginStamp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[username]
	if !ok {
		return nil, common.ErrorUserNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	return &models.LoginStamp{Username: username, LastLoginAt: now}, nil
}

func (r *memUsersRepo) All(ctx context.Context) ([]models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	profiles := make([]models.Profile, 0, len(r.users))
	for _, u := range r.users {
		profiles = append(profiles, u.Profile())
	}
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].LastName != profiles[j].LastName {
			return profiles[i].LastName < profiles[j].LastName
		}
		return profiles[i].FirstName < profiles[j].FirstName
	})
	return profiles, nil
}

func (r *memUsersRepo) Get(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[username]
	if !ok {
		return nil, common.ErrorUserNotFound
	}
	copied := *u
	copied.Password = ""
	return &copied, nil
}

func (r *memUsersRepo) Exists(ctx context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.users[username]
	return ok, nil
}

type memMessagesRepo memStore

func (r *memMessagesRepo) Create(ctx context.Context, from, to, body string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[from]; !ok {
		return nil, common.ErrorValidation
	}
	if _, ok := r.users[to]; !ok {
		return nil, common.ErrorValidation
	}

	msg := &models.Message{
		ID:           r.nextID,
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       time.Now(),
	}
	r.nextID++
	r.messages[msg.ID] = msg

	copied := *msg
	return &copied, nil
}

func (r *memMessagesRepo) Get(ctx context.Context, id int64) (*models.MessageDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, ok := r.messages[id]
	if !ok {
		return nil, common.ErrorMessageNotFound
	}
	return &models.MessageDetail{
		ID:       msg.ID,
		Body:     msg.Body,
		SentAt:   msg.SentAt,
		ReadAt:   msg.ReadAt,
		FromUser: r.users[msg.FromUsername].Profile(),
		ToUser:   r.users[msg.ToUsername].Profile(),
	}, nil
}

func (r *memMessagesRepo) MarkRead(ctx context.Context, id int64) (*models.ReadReceipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, ok := r.messages[id]
	if !ok {
		return nil, common.ErrorMessageNotFound
	}
	if msg.ReadAt == nil {
		now := time.Now()
		msg.ReadAt = &now
	}
	return &models.ReadReceipt{ID: id, ReadAt: *msg.ReadAt}, nil
}

func (r *memMessagesRepo) MessagesFrom(ctx context.Context, username string) ([]models.SentMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]models.SentMessage, 0)
	for _, msg := range r.messages {
		if msg.FromUsername != username {
			continue
		}
		result = append(result, models.SentMessage{
			ID:     msg.ID,
			ToUser: r.users[msg.ToUsername].Profile(),
			Body:   msg.Body,
			SentAt: msg.SentAt,
			ReadAt: msg.ReadAt,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *memMessagesRepo) MessagesTo(ctx context.Context, username string) ([]models.ReceivedMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]models.ReceivedMessage, 0)
	for _, msg := range r.messages {
		if msg.ToUsername != username {
			continue
		}
		result = append(result, models.ReceivedMessage{
			ID:       msg.ID,
			FromUser: r.users[msg.FromUsername].Profile(),
			Body:     msg.Body,
			SentAt:   msg.SentAt,
			ReadAt:   msg.ReadAt,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
