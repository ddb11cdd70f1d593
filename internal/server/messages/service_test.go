package messages

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/messagely/messagely/internal/common"
	"github.com/messagely/messagely/internal/dbx"
	"github.com/messagely/messagely/internal/server/models"
	messagesrepo "github.com/messagely/messagely/internal/server/repositories/messages"
	usersrepo "github.com/messagely/messagely/internal/server/repositories/users"
)

// --- fakes ---

type fakeUsersRepo struct {
	existing map[string]bool
	err      error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	return u, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, common.ErrorUserNotFound
}

func (f *fakeUsersRepo) UpdateLoginTimestamp(ctx context.Context, username string) (*models.LoginStamp, error) {
	return nil, common.ErrorUserNotFound
}

func (f *fakeUsersRepo) All(ctx context.Context) ([]models.Profile, error) { return nil, nil }

func (f *fakeUsersRepo) Get(ctx context.Context, username string) (*models.User, error) {
	return nil, common.ErrorUserNotFound
}

func (f *fakeUsersRepo) Exists(ctx context.Context, username string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.existing[username], nil
}

type fakeMessagesRepo struct {
	createOut *models.Message
	createErr error

	getOut *models.MessageDetail
	getErr error

	markReadCalled bool
	markReadOut    *models.ReadReceipt
	markReadErr    error

	fromOut []models.SentMessage
	fromErr error

	toOut []models.ReceivedMessage
	toErr error
}

func (f *fakeMessagesRepo) Create(ctx context.Context, from, to, body string) (*models.Message, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}

func (f *fakeMessagesRepo) Get(ctx context.Context, id int64) (*models.MessageDetail, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeMessagesRepo) MarkRead(ctx context.Context, id int64) (*models.ReadReceipt, error) {
	f.markReadCalled = true
	if f.markReadErr != nil {
		return nil, f.markReadErr
	}
	return f.markReadOut, nil
}

func (f *fakeMessagesRepo) MessagesFrom(ctx context.Context, username string) ([]models.SentMessage, error) {
	return f.fromOut, f.fromErr
}

func (f *fakeMessagesRepo) MessagesTo(ctx context.Context, username string) ([]models.ReceivedMessage, error) {
	return f.toOut, f.toErr
}

type fakeRepoManager struct {
	users    *fakeUsersRepo
	messages *fakeMessagesRepo
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository { return m.users }

func (m *fakeRepoManager) Messages(db dbx.DBTX) messagesrepo.Repository { return m.messages }

// --- helpers ---

func newService(t *testing.T, rm *fakeRepoManager) (*Service, *sql.DB) {
	t.Helper()
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db, rm), db
}

func detailBetween(from, to string) *models.MessageDetail {
	return &models.MessageDetail{
		ID:       7,
		Body:     "hi",
		SentAt:   time.Now(),
		FromUser: models.Profile{Username: from},
		ToUser:   models.Profile{Username: to},
	}
}

// --- tests ---

func TestCreate_Success(t *testing.T) {
	rm := &fakeRepoManager{
		users:    &fakeUsersRepo{existing: map[string]bool{"alice": true, "bob": true}},
		messages: &fakeMessagesRepo{createOut: &models.Message{ID: 1, FromUsername: "alice", ToUsername: "bob", Body: "hi"}},
	}
	s, _ := newService(t, rm)

	got, err := s.Create(context.Background(), "alice", "bob", "hi")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 1 || got.FromUsername != "alice" {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestCreate_SelfMessageAllowed(t *testing.T) {
	rm := &fakeRepoManager{
		users:    &fakeUsersRepo{existing: map[string]bool{"alice": true}},
		messages: &fakeMessagesRepo{createOut: &models.Message{ID: 2, FromUsername: "alice", ToUsername: "alice", Body: "note to self"}},
	}
	s, _ := newService(t, rm)

	if _, err := s.Create(context.Background(), "alice", "alice", "note to self"); err != nil {
		t.Fatalf("self-message should be allowed, got %v", err)
	}
}

func TestCreate_EmptyBody(t *testing.T) {
	rm := &fakeRepoManager{users: &fakeUsersRepo{}, messages: &fakeMessagesRepo{}}
	s, _ := newService(t, rm)

	for _, body := range []string{"", "   ", "\n\t"} {
		if _, err := s.Create(context.Background(), "alice", "bob", body); !errors.Is(err, common.ErrorValidation) {
			t.Fatalf("body %q: want common.ErrorValidation, got %v", body, err)
		}
	}
}

func TestCreate_MissingRecipient(t *testing.T) {
	rm := &fakeRepoManager{
		users:    &fakeUsersRepo{existing: map[string]bool{"alice": true}},
		messages: &fakeMessagesRepo{},
	}
	s, _ := newService(t, rm)

	_, err := s.Create(context.Background(), "alice", "ghost", "hi")
	if !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("want common.ErrorValidation, got %v", err)
	}
}

func TestGet_ParticipantsAllowed(t *testing.T) {
	rm := &fakeRepoManager{
		users:    &fakeUsersRepo{},
		messages: &fakeMessagesRepo{getOut: detailBetween("alice", "bob")},
	}
	s, _ := newService(t, rm)

	for _, caller := range []string{"alice", "bob"} {
		got, err := s.Get(context.Background(), caller, 7)
		if err != nil {
			t.Fatalf("Get as %s: %v", caller, err)
		}
		if got.ID != 7 {
			t.Fatalf("unexpected detail: %+v", got)
		}
	}
}

func TestGet_ThirdPartyForbidden(t *testing.T) {
	rm := &fakeRepoManager{
		users:    &fakeUsersRepo{},
		messages: &fakeMessagesRepo{getOut: detailBetween("alice", "bob")},
	}
	s, _ := newService(t, rm)

	_, err := s.Get(context.Background(), "mallory", 7)
	if !errors.Is(err, common.ErrorForbidden) {
		t.Fatalf("want common.ErrorForbidden, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	rm := &fakeRepoManager{
		users:    &fakeUsersRepo{},
		messages: &fakeMessagesRepo{getErr: common.ErrorMessageNotFound},
	}
	s, _ := newService(t, rm)

	_, err := s.Get(context.Background(), "alice", 404)
	if !errors.Is(err, common.ErrorMessageNotFound) {
		t.Fatalf("want common.ErrorMessageNotFound, got %v", err)
	}
}

func TestMarkRead_RecipientOnly(t *testing.T) {
	now := time.Now()
	rm := &fakeRepoManager{
		users: &fakeUsersRepo{},
		messages: &fakeMessagesRepo{
			getOut:      detailBetween("alice", "bob"),
			markReadOut: &models.ReadReceipt{ID: 7, ReadAt: now},
		},
	}
	s, _ := newService(t, rm)

	got, err := s.MarkRead(context.Background(), "bob", 7)
	if err != nil {
		t.Fatalf("MarkRead as recipient: %v", err)
	}
	if got.ID != 7 || !got.ReadAt.Equal(now) {
		t.Fatalf("unexpected receipt: %+v", got)
	}
}

func TestMarkRead_SenderForbidden(t *testing.T) {
	rm := &fakeRepoManager{
		users:    &fakeUsersRepo{},
		messages: &fakeMessagesRepo{getOut: detailBetween("alice", "bob")},
	}
	s, _ := newService(t, rm)

	_, err := s.MarkRead(context.Background(), "alice", 7)
	if !errors.Is(err, common.ErrorForbidden) {
		t.Fatalf("want common.ErrorForbidden, got %v", err)
	}
	if rm.messages.markReadCalled {
		t.Fatal("MarkRead must not reach the store when the caller is not the recipient")
	}
}

func TestMarkRead_ThirdPartyForbidden(t *testing.T) {
	rm := &fakeRepoManager{
		users:    &fakeUsersRepo{},
		messages: &fakeMessagesRepo{getOut: detailBetween("alice", "bob")},
	}
	s, _ := newService(t, rm)

	_, err := s.MarkRead(context.Background(), "mallory", 7)
	if !errors.Is(err, common.ErrorForbidden) {
		t.Fatalf("want common.ErrorForbidden, got %v", err)
	}
}

func TestMarkRead_NotFound(t *testing.T) {
	rm := &fakeRepoManager{
		users:    &fakeUsersRepo{},
		messages: &fakeMessagesRepo{getErr: common.ErrorMessageNotFound},
	}
	s, _ := newService(t, rm)

	_, err := s.MarkRead(context.Background(), "bob", 404)
	if !errors.Is(err, common.ErrorMessageNotFound) {
		t.Fatalf("want common.ErrorMessageNotFound, got %v", err)
	}
}

func TestMessagesFromAndTo_Delegate(t *testing.T) {
	rm := &fakeRepoManager{
		users: &fakeUsersRepo{},
		messages: &fakeMessagesRepo{
			fromOut: []models.SentMessage{{ID: 1}},
			toOut:   []models.ReceivedMessage{{ID: 2}},
		},
	}
	s, _ := newService(t, rm)

	from, err := s.MessagesFrom(context.Background(), "alice")
	if err != nil || len(from) != 1 || from[0].ID != 1 {
		t.Fatalf("MessagesFrom: %v %+v", err, from)
	}

	to, err := s.MessagesTo(context.Background(), "alice")
	if err != nil || len(to) != 1 || to[0].ID != 2 {
		t.Fatalf("MessagesTo: %v %+v", err, to)
	}
}
