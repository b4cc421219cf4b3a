package coupon

import (
	"context"

	"github.com/go-faster/errors"
)

// Resolver finds the coupon to apply for a code supplied with an order.
type Resolver interface {
	Resolve(ctx context.Context, code string) (*Coupon, error)
}

// RepoResolver implements Resolver on top of a Repository.
type RepoResolver struct {
	repo Repository
}

// NewRepoResolver creates a RepoResolver backed by the given Repository.
func NewRepoResolver(repo Repository) *RepoResolver {
	return &RepoResolver{repo: repo}
}

// Resolve normalises the code and looks it up. Unknown and blank codes yield
// a nil coupon without error: orders with a bad code are priced at full
// price rather than rejected.
func (r *RepoResolver) Resolve(ctx context.Context, code string) (*Coupon, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, nil
	}
	c, err := r.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}
	return c, nil
}
