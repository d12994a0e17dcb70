package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"dojo/internal/domain/domainerr"
	"dojo/internal/domain/member"
)

func TestExecuteRegisterMember(t *testing.T) {
	store := newMockMemberStore()
	got, err := ExecuteRegisterMember(context.Background(),
		RegisterMemberInput{Name: "Aroha", Email: "Aroha@Example.com", PaymentToken: "tok-9"},
		RegisterMemberDeps{MemberStore: store, GenerateID: seqID()})
	if err != nil {
		t.Fatalf("ExecuteRegisterMember() error = %v", err)
	}
	want := member.Member{ID: "id-1", Name: "Aroha", Email: "aroha@example.com", Status: member.StatusActive, PaymentToken: "tok-9"}
	if got != want || store.members["id-1"] != want {
		t.Errorf("member = %+v, want %+v", got, want)
	}
}

func TestExecuteRegisterMember_Rejects(t *testing.T) {
	existing := member.Member{ID: "m1", Name: "Aroha", Email: "aroha@example.com", Status: member.StatusActive}
	tests := []struct {
		name    string
		input   RegisterMemberInput
		wantErr error
	}{
		{"missing name", RegisterMemberInput{Email: "ben@example.com"}, domainerr.ErrInvalidInput},
		{"bad email", RegisterMemberInput{Name: "Ben", Email: "ben"}, domainerr.ErrInvalidInput},
		{"duplicate email", RegisterMemberInput{Name: "Other", Email: "AROHA@example.com"}, ErrDuplicateMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockMemberStore(existing)
			_, err := ExecuteRegisterMember(context.Background(), tt.input, RegisterMemberDeps{MemberStore: store})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if len(store.members) != 1 {
				t.Errorf("stored = %d, want 1", len(store.members))
			}
		})
	}
}

func TestExecuteArchiveAndRestoreMember(t *testing.T) {
	store := newMockMemberStore(member.Member{ID: "m1", Name: "Aroha", Email: "aroha@example.com", Status: member.StatusActive})
	deps := MemberStatusDeps{MemberStore: store}
	ctx := context.Background()

	got, err := ExecuteArchiveMember(ctx, MemberStatusInput{MemberID: "m1"}, deps)
	if err != nil || got.Status != member.StatusArchived || store.members["m1"].Status != member.StatusArchived {
		t.Fatalf("archive = %+v, %v", got, err)
	}
	if _, err := ExecuteArchiveMember(ctx, MemberStatusInput{MemberID: "m1"}, deps); !errors.Is(err, member.ErrAlreadyArchived) {
		t.Errorf("second archive err = %v, want ErrAlreadyArchived", err)
	}

	got, err = ExecuteRestoreMember(ctx, MemberStatusInput{MemberID: "m1"}, deps)
	if err != nil || got.Status != member.StatusActive {
		t.Fatalf("restore = %+v, %v", got, err)
	}
	if _, err := ExecuteRestoreMember(ctx, MemberStatusInput{MemberID: "m1"}, deps); !errors.Is(err, member.ErrNotArchived) {
		t.Errorf("second restore err = %v, want ErrNotArchived", err)
	}

	if _, err := ExecuteArchiveMember(ctx, MemberStatusInput{MemberID: "nope"}, deps); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing member err = %v, want sql.ErrNoRows", err)
	}
	if _, err := ExecuteArchiveMember(ctx, MemberStatusInput{}, deps); !errors.Is(err, domainerr.ErrInvalidInput) {
		t.Errorf("empty id err = %v, want ErrInvalidInput", err)
	}
}
