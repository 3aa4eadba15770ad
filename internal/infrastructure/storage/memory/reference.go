package memory

import (
	"context"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/domain"
)

// refRepo implements domain.ReferenceRepository over one map of the state.
type refRepo[T domain.ReferenceEntity] struct {
	s       *Store
	entity  string
	table   func(st *state) map[id.ID]T
	clone   func(T) T
	name    func(T) string
	sameKey func(a, b T) bool
	inUse   func(st *state, entityID id.ID) string
	// detach clears references left on other records once the entity is deleted.
	detach func(st *state, entityID id.ID)
}

func (r *refRepo[T]) Create(ctx context.Context, e T) error {
	return r.s.write(ctx, func(st *state) error {
		r.table(st)[e.GetID()] = r.clone(e)
		return nil
	})
}

func (r *refRepo[T]) GetByID(_ context.Context, entityID id.ID) (T, error) {
	var (
		out   T
		found bool
	)
	r.s.read(func(st *state) {
		if e, ok := r.table(st)[entityID]; ok {
			out, found = r.clone(e), true
		}
	})
	if !found {
		return out, apperror.NewNotFound(r.entity, entityID.String())
	}
	return out, nil
}

func (r *refRepo[T]) Update(ctx context.Context, e T) error {
	return r.s.write(ctx, func(st *state) error {
		t := r.table(st)
		if _, ok := t[e.GetID()]; !ok {
			return apperror.NewNotFound(r.entity, e.GetID().String())
		}
		t[e.GetID()] = r.clone(e)
		return nil
	})
}

func (r *refRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	return r.s.write(ctx, func(st *state) error {
		t := r.table(st)
		if _, ok := t[entityID]; !ok {
			return apperror.NewNotFound(r.entity, entityID.String())
		}
		delete(t, entityID)
		if r.detach != nil {
			r.detach(st, entityID)
		}
		return nil
	})
}

func (r *refRepo[T]) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	var items []T
	r.s.read(func(st *state) {
		for _, e := range r.table(st) {
			if containsFold(r.name(e), filter.Search) {
				items = append(items, r.clone(e))
			}
		}
	})
	byName(items, r.name)
	return paginate(items, filter), nil
}

func (r *refRepo[T]) NameTaken(_ context.Context, e T) (bool, error) {
	taken := false
	r.s.read(func(st *state) {
		for _, other := range r.table(st) {
			if other.GetID() != e.GetID() && r.sameKey(other, e) {
				taken = true
				return
			}
		}
	})
	return taken, nil
}

func (r *refRepo[T]) InUse(_ context.Context, entityID id.ID) (string, error) {
	if r.inUse == nil {
		return "", nil
	}
	reason := ""
	r.s.read(func(st *state) {
		reason = r.inUse(st, entityID)
	})
	return reason, nil
}

func shallow[T any](v *T) *T {
	c := *v
	return &c
}
