package orchestrators

import (
	"context"
	"log/slog"

	"dojo/internal/domain/member"
)

// MemberStatusInput names the member whose status changes.
type MemberStatusInput struct {
	MemberID string `validate:"required"`
}

// MemberStatusDeps holds dependencies for Archive/Restore.
type MemberStatusDeps struct {
	MemberStore MemberDirectory
}

// ExecuteArchiveMember archives a member. Archived members drop out of the
// at-risk list and the risk report but keep their attendance and payments.
// PRE: member exists and is not archived
// POST: Member status set to archived
func ExecuteArchiveMember(ctx context.Context, input MemberStatusInput, deps MemberStatusDeps) (member.Member, error) {
	return changeMemberStatus(ctx, input, deps, "member_archived", (*member.Member).Archive)
}

// ExecuteRestoreMember restores an archived member to active status.
// PRE: member exists and is archived
// POST: Member status set to active
func ExecuteRestoreMember(ctx context.Context, input MemberStatusInput, deps MemberStatusDeps) (member.Member, error) {
	return changeMemberStatus(ctx, input, deps, "member_restored", (*member.Member).Restore)
}

func changeMemberStatus(ctx context.Context, input MemberStatusInput, deps MemberStatusDeps, event string, apply func(*member.Member) error) (member.Member, error) {
	if err := validateInput(input); err != nil {
		return member.Member{}, err
	}

	m, err := deps.MemberStore.GetByID(ctx, input.MemberID)
	if err != nil {
		return member.Member{}, err
	}
	if err := apply(&m); err != nil {
		return member.Member{}, err
	}
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, err
	}

	slog.Info("member_event", "event", event, "member_id", input.MemberID)
	return m, nil
}
