package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"dojo/internal/domain/member"
)

// ErrDuplicateMember is returned when the email already belongs to a member.
var ErrDuplicateMember = errors.New("a member with this email already exists")

// RegisterMemberInput carries input for the orchestrator.
type RegisterMemberInput struct {
	Name  string `validate:"required,max=100"`
	Email string `validate:"required,email"`
	// PaymentToken is the gateway's saved-card token, optional.
	PaymentToken string `validate:"max=200"`
}

// RegisterMemberDeps holds dependencies for RegisterMember.
type RegisterMemberDeps struct {
	MemberStore MemberDirectory
	GenerateID  func() string
}

// ExecuteRegisterMember coordinates member registration.
// PRE: valid email, non-empty name
// POST: Member created with a new ID and Status=active
// INVARIANT: email is unique, compared case-insensitively
func ExecuteRegisterMember(ctx context.Context, input RegisterMemberInput, deps RegisterMemberDeps) (member.Member, error) {
	if err := validateInput(input); err != nil {
		return member.Member{}, err
	}

	addr := member.NormalizeEmail(input.Email)
	_, err := deps.MemberStore.GetByEmail(ctx, addr)
	switch {
	case err == nil:
		return member.Member{}, fmt.Errorf("%w: %s", ErrDuplicateMember, addr)
	case !errors.Is(err, sql.ErrNoRows):
		return member.Member{}, fmt.Errorf("look up member: %w", err)
	}

	m := member.Member{
		ID:           idOrUUID(deps.GenerateID),
		Name:         input.Name,
		Email:        addr,
		Status:       member.StatusActive,
		PaymentToken: input.PaymentToken,
	}
	if err := m.Validate(); err != nil {
		return member.Member{}, invalid(err)
	}
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, err
	}

	slog.Info("member_event", "event", "member_registered", "member_id", m.ID)
	return m, nil
}
