package uow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stadix/stadix/internal/domain"
	"github.com/stadix/stadix/internal/repository"
	"github.com/stadix/stadix/internal/repository/memory"
)

func TestDoRunsHooksAfterCommit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	u := NewUoW(store)

	var order []string

	err := u.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(AfterCommit)) error {
		after(func(ctx context.Context) { order = append(order, "first") })
		after(func(ctx context.Context) { order = append(order, "second") })
		order = append(order, "body")
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"body", "first", "second"}, order)
}

func TestDoSkipsHooksOnError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	u := NewUoW(store)

	boom := errors.New("boom")
	hookRan := false

	err := u.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(AfterCommit)) error {
		after(func(ctx context.Context) { hookRan = true })
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.False(t, hookRan)
}

// retryingStore reruns fn once before letting it commit, the way the
// postgres store retries serialization failures. The first attempt's writes
// are rolled back.
type retryingStore struct {
	*memory.Store
}

func (s *retryingStore) RunTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	discard := errors.New("serialization failure, retrying")

	err := s.Store.RunTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return discard
	})
	if err != nil && !errors.Is(err, discard) {
		return err
	}

	return s.Store.RunTx(ctx, fn)
}

func TestDoHooksFireOncePerCommit(t *testing.T) {
	ctx := context.Background()
	store := &retryingStore{Store: memory.NewStore()}
	u := NewUoW(store)

	attempts := 0
	fired := 0
	var seenSectionID int64

	err := u.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(AfterCommit)) error {
		attempts++
		id, err := tx.Admin().CreateSection(ctx, &domain.Section{
			Name:             "Retry Field",
			Type:             domain.SectionField,
			StandingCapacity: 10,
		})
		if err != nil {
			return err
		}

		after(func(ctx context.Context) {
			fired++
			seenSectionID = id
		})
		return nil
	})
	require.NoError(t, err)

	require.Equal(t, 2, attempts)
	require.Equal(t, 1, fired, "after-commit hook must fire once per committed unit")

	// the hook must carry the committed attempt's id, not the rolled-back one
	list, err := store.Admin().ListSections(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, list[0].ID, seenSectionID)
}

func TestDoRollsBackWrites(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	u := NewUoW(store)

	boom := errors.New("boom")

	err := u.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(AfterCommit)) error {
		if _, err := tx.Admin().CreateSection(ctx, &domain.Section{
			Name:             "Ghost",
			Type:             domain.SectionField,
			StandingCapacity: 10,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	list, err := store.Admin().ListSections(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}
