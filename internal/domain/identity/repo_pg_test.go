package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/medreview/medreview/internal/platform/db/dbtest"
)

func TestPG_ProfileLifecycle(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	svc := NewService(NewUserRepoPG(pool), NewProfileRepoPG(pool), NewMedicalDataRepoPG(pool), pool)

	u := &User{Email: "ada@example.com"}
	if err := svc.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	if err := svc.CreateUser(ctx, &User{Email: "ada@example.com"}); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}

	p := validProfile()
	if err := svc.CreateProfile(ctx, u.ID, p); err != nil {
		t.Fatalf("CreateProfile() error: %v", err)
	}
	if err := svc.CreateProfile(ctx, u.ID, validProfile()); !errors.Is(err, ErrProfileExists) {
		t.Errorf("expected ErrProfileExists, got %v", err)
	}
	if err := svc.CreateProfile(ctx, uuid.New(), validProfile()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	md, err := svc.GetMedicalData(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetMedicalData() error: %v", err)
	}
	if md.Allergies != nil {
		t.Errorf("expected empty medical data, got %+v", md)
	}

	md.Allergies = strPtr("penicillin")
	if err := svc.UpdateMedicalData(ctx, md); err != nil {
		t.Fatalf("UpdateMedicalData() error: %v", err)
	}
	got, _ := svc.GetMedicalData(ctx, p.ID)
	if got.Allergies == nil || *got.Allergies != "penicillin" {
		t.Errorf("unexpected allergies %v", got.Allergies)
	}

	users, total, err := svc.ListUsers(ctx, 10, 0)
	if err != nil || total != 1 || len(users) != 1 {
		t.Errorf("ListUsers() = %d users, total %d, err %v", len(users), total, err)
	}
}
