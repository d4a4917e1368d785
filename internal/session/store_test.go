package session

import (
	"context"
	"testing"
	"time"

	"github.com/mentora-learn/gateway/internal/models"
)

func testUser() *models.User {
	return &models.User{ID: "u1", Username: "ada", Email: "ada@example.com", Role: models.RoleCreator}
}

func TestMemoryStoreSetAuthAndGet(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	if err := store.SetAuth(context.Background(), "tok", testUser()); err != nil {
		t.Fatalf("set auth: %v", err)
	}
	sess, err := store.Get(context.Background(), "tok")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !sess.Authenticated || sess.User.ID != "u1" || sess.Token != "tok" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestMemoryStoreSetAuthRequiresUser(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	if err := store.SetAuth(context.Background(), "tok", nil); err != ErrNilUser {
		t.Fatalf("expected ErrNilUser, got %v", err)
	}
}

func TestMemoryStoreEmptyTokenIsLegalNoop(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	if err := store.SetAuth(context.Background(), "", testUser()); err != nil {
		t.Fatalf("empty token must be a legal no-op, got %v", err)
	}
	if _, err := store.Get(context.Background(), ""); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for empty token, got %v", err)
	}
}

func TestMemoryStoreSetTokenRekeys(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	store.SetAuth(context.Background(), "old", testUser())
	if err := store.SetToken(context.Background(), "old", "new"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	sess, err := store.Get(context.Background(), "new")
	if err != nil {
		t.Fatalf("get new: %v", err)
	}
	if sess.User.ID != "u1" || sess.Token != "new" {
		t.Fatalf("user not preserved across token rotation: %+v", sess)
	}
	if _, err := store.Get(context.Background(), "old"); err != ErrNotFound {
		t.Fatal("old token should have been removed")
	}
}

func TestMemoryStoreClearAuth(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	store.SetAuth(context.Background(), "tok", testUser())
	if err := store.ClearAuth(context.Background(), "tok"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Get(context.Background(), "tok"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
}

func TestMemoryStorePassiveExpiry(t *testing.T) {
	store := NewMemoryStore(8 * time.Hour)
	store.SetAuth(context.Background(), "tok", testUser())

	now := time.Now()
	store.now = func() time.Time { return now.Add(9 * time.Hour) }
	if _, err := store.Get(context.Background(), "tok"); err != ErrNotFound {
		t.Fatalf("expected session to expire after the wall-clock timer, got %v", err)
	}
}

func TestMemoryStoreLastWriterWins(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	store.SetAuth(context.Background(), "tok", testUser())
	updated := testUser()
	updated.Username = "ada2"
	store.SetAuth(context.Background(), "tok", updated)

	sess, err := store.Get(context.Background(), "tok")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess.User.Username != "ada2" {
		t.Fatalf("whole-record replace expected, got %+v", sess.User)
	}
}
