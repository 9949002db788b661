//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/usecase"
)

func TestIntentStore_Create(t *testing.T) {
	ctx := context.Background()
	store := usecase.NewIntentStore(NewMockIntentRepo(), newTestLogger())

	t.Run("should create a pending intent with a fresh id", func(t *testing.T) {
		a, err := store.Create(ctx, "user-1", "premium", 500000, "order")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		b, _ := store.Create(ctx, "user-1", "premium", 500000, "order")
		if a.ID == "" || a.ID == b.ID {
			t.Fatalf("ids must be unique, got %q and %q", a.ID, b.ID)
		}
		if len(a.ID) != 26 {
			t.Errorf("expected a 26-char ULID, got %q", a.ID)
		}
		if a.Status != model.IntentStatusPending || a.Currency != "VND" || a.Amount != 500000 {
			t.Errorf("unexpected intent %+v", a)
		}
	})

	cases := map[string]struct {
		payer, pkg string
		amount     int64
	}{
		"zero amount":     {"user-1", "premium", 0},
		"negative amount": {"user-1", "premium", -5},
		"missing payer":   {"", "premium", 100},
		"missing package": {"user-1", " ", 100},
	}
	for name, tc := range cases {
		t.Run("should reject "+name, func(t *testing.T) {
			_, err := store.Create(ctx, tc.payer, tc.pkg, tc.amount, "")
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("want ErrValidation, got %v", err)
			}
		})
	}
}

func TestIntentStore_Transition(t *testing.T) {
	ctx := context.Background()

	t.Run("terminal state is final", func(t *testing.T) {
		store := usecase.NewIntentStore(NewMockIntentRepo(), newTestLogger())
		in, _ := store.Create(ctx, "user-1", "premium", 500000, "")

		got, err := store.Transition(ctx, in.ID, model.IntentStatusCompleted, model.Settlement{ResponseCode: "00"})
		if err != nil || got.Status != model.IntentStatusCompleted {
			t.Fatalf("first transition: %+v, %v", got, err)
		}

		again, err := store.Transition(ctx, in.ID, model.IntentStatusFailed, model.Settlement{ResponseCode: "24"})
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("want ErrInvalidTransition, got %v", err)
		}
		if again == nil || again.Status != model.IntentStatusCompleted || again.ProviderResponseCode != "00" {
			t.Fatalf("expected the unchanged stored record, got %+v", again)
		}
	})

	t.Run("pending is not a valid target", func(t *testing.T) {
		store := usecase.NewIntentStore(NewMockIntentRepo(), newTestLogger())
		in, _ := store.Create(ctx, "user-1", "premium", 500000, "")
		if _, err := store.Transition(ctx, in.ID, model.IntentStatusPending, model.Settlement{}); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("want ErrValidation, got %v", err)
		}
	})

	t.Run("unknown intent", func(t *testing.T) {
		store := usecase.NewIntentStore(NewMockIntentRepo(), newTestLogger())
		_, err := store.Transition(ctx, "01J0000000000000000000000Z", model.IntentStatusCompleted, model.Settlement{})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
		if _, err := store.Get(ctx, "01J0000000000000000000000Z"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("Get: want ErrNotFound, got %v", err)
		}
	})

	t.Run("concurrent transitions have exactly one winner", func(t *testing.T) {
		store := usecase.NewIntentStore(NewMockIntentRepo(), newTestLogger())
		in, _ := store.Create(ctx, "user-1", "premium", 500000, "")

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			winners  int
			replays  int
			finalAll = map[model.IntentStatus]int{}
		)
		for i := 0; i < 20; i++ {
			target := model.IntentStatusCompleted
			if i%2 == 0 {
				target = model.IntentStatusFailed
			}
			wg.Add(1)
			go func(target model.IntentStatus) {
				defer wg.Done()
				got, err := store.Transition(ctx, in.ID, target, model.Settlement{})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					winners++
				case errors.Is(err, domain.ErrInvalidTransition):
					replays++
				default:
					t.Errorf("unexpected error %v", err)
					return
				}
				finalAll[got.Status]++
			}(target)
		}
		wg.Wait()

		if winners != 1 || replays != 19 {
			t.Fatalf("want 1 winner and 19 replays, got %d and %d", winners, replays)
		}
		if len(finalAll) != 1 {
			t.Fatalf("every caller must observe the same terminal state, got %v", finalAll)
		}
	})
}

func TestIntentStore_List(t *testing.T) {
	ctx := context.Background()
	store := usecase.NewIntentStore(NewMockIntentRepo(), newTestLogger())
	_, _ = store.Create(ctx, "user-1", "premium", 1000, "")
	_, _ = store.Create(ctx, "user-2", "premium", 1000, "")

	mine, err := store.ListByPayer(ctx, "user-1", 10, 0)
	if err != nil || len(mine) != 1 || mine[0].PayerID != "user-1" {
		t.Fatalf("ListByPayer: %v, %v", mine, err)
	}
	if _, err := store.List(ctx, model.IntentFilter{Status: "refunded"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("unknown status filter: %v", err)
	}
}
