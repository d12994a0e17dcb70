package membership

import (
	"context"

	domain "dojo/internal/domain/membership"
)

// Store persists membership plans and member assignments.
type Store interface {
	GetPlan(ctx context.Context, id string) (domain.Plan, error)
	SavePlan(ctx context.Context, plan domain.Plan) error
	ListPlans(ctx context.Context, activeOnly bool) ([]domain.Plan, error)

	GetAssignment(ctx context.Context, id string) (domain.Assignment, error)
	SaveAssignment(ctx context.Context, a domain.Assignment) error
	ListAssignmentsByMember(ctx context.Context, memberID string) ([]domain.Assignment, error)
}
