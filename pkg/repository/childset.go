package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ledgerline/erpcore/pkg/aggregate"
	"github.com/ledgerline/erpcore/pkg/datamodel"
)

// childSet adapts a slice of owned children plus their repository to the
// coordinator's collection interface.
type childSet[T datamodel.OwnedChild] struct {
	repo  *Repository[T]
	items []T
}

// ChildSet wraps one owned collection of an aggregate for the coordinator.
func ChildSet[T datamodel.OwnedChild](repo *Repository[T], items []T) aggregate.ChildCollection {
	return &childSet[T]{repo: repo, items: items}
}

func (s *childSet[T]) ObjectType() string { return s.repo.desc.ObjectType }

func (s *childSet[T]) Len() int { return len(s.items) }

func (s *childSet[T]) Child(i int) datamodel.OwnedChild { return s.items[i] }

func (s *childSet[T]) InsertTx(ctx context.Context, tx pgx.Tx, i int) error {
	_, err := s.repo.InsertTx(ctx, tx, s.items[i])
	return err
}

func (s *childSet[T]) UpdateTx(ctx context.Context, tx pgx.Tx, i int) (bool, error) {
	return s.repo.UpdateTx(ctx, tx, s.items[i])
}

// Root binds an entity of this repository to the coordinator's root handle.
func (r *Repository[T]) Root(e T) aggregate.RootHandle {
	return aggregate.RootHandle{
		Entity:     e,
		ObjectType: r.desc.ObjectType,
		InsertTx: func(ctx context.Context, tx pgx.Tx) (int, error) {
			return r.InsertTx(ctx, tx, e)
		},
		UpdateTx: func(ctx context.Context, tx pgx.Tx) (bool, error) {
			return r.UpdateTx(ctx, tx, e)
		},
	}
}
