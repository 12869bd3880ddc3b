// Package contract holds storage-agnostic test suites. Each store wires its
// own factory and runs the same expectations, so the Postgres and in-memory
// stores cannot drift apart.
package contract

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/maxviazov/convention-catalog-service/internal/catalog"
	"github.com/maxviazov/convention-catalog-service/internal/model"
	"github.com/maxviazov/convention-catalog-service/internal/repository"
	"github.com/maxviazov/convention-catalog-service/internal/slice"
)

// CatalogFactory returns an empty repository, a builder of valid rows that
// differ for every n (parents already seeded) and a cleanup.
type CatalogFactory[T any] func(t *testing.T) (repo repository.CatalogRepository[T], mk func(n int) T, cleanup func())

// CodingRuleFactory additionally hands out the two layers rules are seeded under.
type CodingRuleFactory func(t *testing.T) (repo repository.CatalogRepository[model.CodingRule], layerA, layerB int64, cleanup func())

type PingerFactory func(t *testing.T) (repository.Pinger, func())

// FeedbackStore is a feedback repository that also swaps review states.
type FeedbackStore interface {
	repository.CatalogRepository[model.Feedback]
	repository.StatusRepository[model.Feedback]
}

// FeedbackFactory returns an empty feedback store, a builder of PENDING
// feedback rows and a cleanup.
type FeedbackFactory func(t *testing.T) (repo FeedbackStore, mk func(n int) model.Feedback, cleanup func())

func seed[T any](t *testing.T, repo repository.CatalogRepository[T], mk func(n int) T, key func(T) slice.Key, count int) []slice.Key {
	t.Helper()
	ids := make([]slice.Key, 0, count)
	for i := 1; i <= count; i++ {
		v, err := repo.Create(context.Background(), mk(i))
		if err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
		ids = append(ids, key(v))
	}
	return ids
}

func keys[T any](rows []T, key func(T) slice.Key) []slice.Key {
	out := make([]slice.Key, len(rows))
	for i, r := range rows {
		out[i] = key(r)
	}
	return out
}

// writable returns the values update must replace and the immutable values
// it must keep.
func writable[T any](entity catalog.Entity[T], v T) (mutable, fixed []any) {
	for i, arg := range entity.InsertArgs(v) {
		if entity.IsImmutable(entity.InsertColumns[i]) {
			fixed = append(fixed, arg)
		} else {
			mutable = append(mutable, arg)
		}
	}
	return mutable, fixed
}

func equalKeys(a, b []slice.Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func RunCatalogContract[T any](t *testing.T, entity catalog.Entity[T], makeRepo CatalogFactory[T]) {
	t.Helper()
	limits := slice.DefaultLimits()

	t.Run("create_and_get", func(t *testing.T) {
		repo, mk, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, mk(1))
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if entity.Key(created) <= 0 {
			t.Fatalf("expected assigned id, got %d", entity.Key(created))
		}
		got, err := repo.GetByID(ctx, entity.Key(created))
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if entity.Key(got) != entity.Key(created) {
			t.Fatalf("mismatch: %+v", got)
		}
	})

	t.Run("get_not_found", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		_, err := repo.GetByID(context.Background(), 999999)
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	if len(entity.Unique) > 0 {
		t.Run("create_duplicate_conflict", func(t *testing.T) {
			repo, mk, cleanup := makeRepo(t)
			t.Cleanup(cleanup)
			ctx := context.Background()
			if _, err := repo.Create(ctx, mk(1)); err != nil {
				t.Fatalf("seed: %v", err)
			}
			_, err := repo.Create(ctx, mk(1))
			if !errors.Is(err, repository.ErrAlreadyExists) {
				t.Fatalf("expected ErrAlreadyExists, got %v", err)
			}
			var ce *repository.ConstraintError
			if !errors.As(err, &ce) || !reflect.DeepEqual(ce.Columns, entity.Unique[0]) {
				t.Fatalf("expected constraint on %v, got %v", entity.Unique[0], err)
			}
		})
	}

	t.Run("update_replaces_fields", func(t *testing.T) {
		repo, mk, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, mk(1))
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		id := entity.Key(created)
		updated, err := repo.Update(ctx, id, mk(2))
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if entity.Key(updated) != id {
			t.Fatalf("update changed id: %d -> %d", id, entity.Key(updated))
		}
		wantMutable, _ := writable(entity, mk(2))
		_, wantFixed := writable(entity, created)
		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("get after update: %v", err)
		}
		for _, row := range []T{updated, got} {
			mutable, fixed := writable(entity, row)
			if !reflect.DeepEqual(mutable, wantMutable) {
				t.Fatalf("writable columns not replaced: got %v want %v", mutable, wantMutable)
			}
			if !reflect.DeepEqual(fixed, wantFixed) {
				t.Fatalf("immutable columns changed: got %v want %v", fixed, wantFixed)
			}
		}

		// Writing a row back unchanged never collides with itself.
		if _, err := repo.Update(ctx, id, got); err != nil {
			t.Fatalf("idempotent update: %v", err)
		}
	})

	t.Run("update_not_found", func(t *testing.T) {
		repo, mk, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		_, err := repo.Update(context.Background(), 999999, mk(1))
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	if entity.Schema.SoftDeletes() {
		t.Run("update_deleted_not_found", func(t *testing.T) {
			repo, mk, cleanup := makeRepo(t)
			t.Cleanup(cleanup)
			ctx := context.Background()
			created, err := repo.Create(ctx, mk(1))
			if err != nil {
				t.Fatalf("seed: %v", err)
			}
			if err := repo.Delete(ctx, entity.Key(created)); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := repo.Update(ctx, entity.Key(created), mk(2)); !errors.Is(err, repository.ErrNotFound) {
				t.Fatalf("expected ErrNotFound for deleted row, got %v", err)
			}
		})
	}

	if len(entity.Unique) > 0 {
		t.Run("update_duplicate_conflict", func(t *testing.T) {
			repo, mk, cleanup := makeRepo(t)
			t.Cleanup(cleanup)
			ctx := context.Background()
			ids := seed(t, repo, mk, entity.Key, 2)
			_, err := repo.Update(ctx, ids[1], mk(1))
			if !errors.Is(err, repository.ErrAlreadyExists) {
				t.Fatalf("expected ErrAlreadyExists, got %v", err)
			}
			var ce *repository.ConstraintError
			if !errors.As(err, &ce) || len(ce.Columns) == 0 {
				t.Fatalf("expected the violated columns to be named, got %v", err)
			}
		})
	}

	t.Run("delete_hides_row", func(t *testing.T) {
		repo, mk, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, mk(1))
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		id := entity.Key(created)
		if err := repo.Delete(ctx, id); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := repo.GetByID(ctx, id); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := repo.Delete(ctx, id); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("walk_descending_25_by_10", func(t *testing.T) {
		repo, mk, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ids := seed(t, repo, mk, entity.Key, 25)
		eng := slice.NewEngine[T](repo, entity.Key)
		ctx := context.Background()

		c, err := slice.NewCriteria(entity.Schema, slice.FirstPage(limits, 10))
		if err != nil {
			t.Fatalf("criteria: %v", err)
		}
		var walked []slice.Key
		var cursors []string
		for {
			res, err := eng.Search(ctx, c)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			walked = append(walked, keys(res.Content, entity.Key)...)
			cursors = append(cursors, res.Cursor())
			if !res.HasNext {
				break
			}
			next, _ := slice.DecodeCursor(res.Cursor())
			c = c.Next(next)
		}
		want := make([]slice.Key, 0, len(ids))
		for i := len(ids) - 1; i >= 0; i-- {
			want = append(want, ids[i])
		}
		if !equalKeys(walked, want) {
			t.Fatalf("walk order mismatch: got %v want %v", walked, want)
		}
		if len(cursors) != 3 || cursors[2] != "" {
			t.Fatalf("expected three slices ending without cursor, got %q", cursors)
		}
		if cursors[0] != slice.EncodeCursor(want[9]) || cursors[1] != slice.EncodeCursor(want[19]) {
			t.Fatalf("unexpected cursors %q", cursors)
		}
	})

	t.Run("walk_ascending", func(t *testing.T) {
		repo, mk, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ids := seed(t, repo, mk, entity.Key, 7)
		eng := slice.NewEngine[T](repo, entity.Key)
		c, err := slice.NewCriteria(entity.Schema, slice.FirstPage(limits, 3).WithDirection(slice.Ascending))
		if err != nil {
			t.Fatalf("criteria: %v", err)
		}
		all, err := eng.All(context.Background(), c)
		if err != nil {
			t.Fatalf("all: %v", err)
		}
		if !equalKeys(keys(all, entity.Key), ids) {
			t.Fatalf("ascending walk mismatch: got %v want %v", keys(all, entity.Key), ids)
		}
	})

	t.Run("exact_fit_has_no_next", func(t *testing.T) {
		repo, mk, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		seed(t, repo, mk, entity.Key, 5)
		eng := slice.NewEngine[T](repo, entity.Key)
		c, _ := slice.NewCriteria(entity.Schema, slice.FirstPage(limits, 5))
		res, err := eng.Search(context.Background(), c)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(res.Content) != 5 || res.HasNext || res.NextCursor != nil {
			t.Fatalf("unexpected slice: len=%d has_next=%v", len(res.Content), res.HasNext)
		}
	})

	if entity.Schema.SoftDeletes() {
		t.Run("soft_deleted_only_with_include_deleted", func(t *testing.T) {
			repo, mk, cleanup := makeRepo(t)
			t.Cleanup(cleanup)
			ids := seed(t, repo, mk, entity.Key, 3)
			ctx := context.Background()
			if err := repo.Delete(ctx, ids[1]); err != nil {
				t.Fatalf("delete: %v", err)
			}
			eng := slice.NewEngine[T](repo, entity.Key)

			c, _ := slice.NewCriteria(entity.Schema, slice.FirstPage(limits, 10))
			res, err := eng.Search(ctx, c)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if !equalKeys(keys(res.Content, entity.Key), []slice.Key{ids[2], ids[0]}) {
				t.Fatalf("deleted row leaked: %v", keys(res.Content, entity.Key))
			}

			c, _ = slice.NewCriteria(entity.Schema, slice.FirstPage(limits, 10), slice.IncludeDeleted(true))
			res, err = eng.Search(ctx, c)
			if err != nil {
				t.Fatalf("search with deleted: %v", err)
			}
			if len(res.Content) != 3 {
				t.Fatalf("expected 3 rows including deleted, got %d", len(res.Content))
			}
		})
	}
}

// RunCodingRuleFilterContract checks set filters and search against rules
// spread over two layers.
func RunCodingRuleFilterContract(t *testing.T, makeRepo CodingRuleFactory) {
	t.Helper()
	entity := catalog.CodingRules
	limits := slice.DefaultLimits()

	setup := func(t *testing.T) (*slice.Engine[model.CodingRule], int64, int64) {
		repo, layerA, layerB, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		rules := []model.CodingRule{
			{LayerID: layerA, Code: "DOM-001", Name: "Lombok Forbidden", Severity: model.SeverityBlocker, Category: "ANNOTATION", Description: "no lombok in domain"},
			{LayerID: layerA, Code: "DOM-002", Name: "Law of Demeter", Severity: model.SeverityMajor, Category: "STRUCTURE", Description: "one dot per line"},
			{LayerID: layerB, Code: "APP-001", Name: "Transactional boundary", Severity: model.SeverityCritical, Category: "STRUCTURE", Description: "100%_sure"},
			{LayerID: layerB, Code: "APP-002", Name: "Port naming", Severity: model.SeverityMinor, Category: "NAMING", Description: "ports end with Port"},
		}
		for _, r := range rules {
			if _, err := repo.Create(context.Background(), r); err != nil {
				t.Fatalf("seed %s: %v", r.Code, err)
			}
		}
		return slice.NewEngine[model.CodingRule](repo, entity.Key), layerA, layerB
	}

	codes := func(rows []model.CodingRule) []string {
		out := make([]string, len(rows))
		for i, r := range rows {
			out[i] = r.Code
		}
		return out
	}

	run := func(t *testing.T, eng *slice.Engine[model.CodingRule], opts ...slice.Option) []string {
		t.Helper()
		c, err := slice.NewCriteria(entity.Schema, slice.FirstPage(limits, 20), opts...)
		if err != nil {
			t.Fatalf("criteria: %v", err)
		}
		res, err := eng.Search(context.Background(), c)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		return codes(res.Content)
	}

	t.Run("layer_filter", func(t *testing.T) {
		eng, layerA, _ := setup(t)
		got := run(t, eng, slice.WithIn(catalog.DimLayerID, []int64{layerA}))
		if len(got) != 2 || got[0] != "DOM-002" || got[1] != "DOM-001" {
			t.Fatalf("unexpected rules %v", got)
		}
	})

	t.Run("empty_filter_is_neutral", func(t *testing.T) {
		eng, _, _ := setup(t)
		got := run(t, eng, slice.WithIn(catalog.DimSeverity, []string{}), slice.WithIn[int64](catalog.DimLayerID, nil))
		if len(got) != 4 {
			t.Fatalf("expected all 4 rules, got %v", got)
		}
	})

	t.Run("filters_are_anded", func(t *testing.T) {
		eng, _, layerB := setup(t)
		got := run(t, eng,
			slice.WithIn(catalog.DimLayerID, []int64{layerB}),
			slice.WithIn(catalog.DimCategory, []string{"STRUCTURE", "ANNOTATION"}),
		)
		if len(got) != 1 || got[0] != "APP-001" {
			t.Fatalf("unexpected rules %v", got)
		}
	})

	t.Run("search_is_case_insensitive", func(t *testing.T) {
		eng, _, _ := setup(t)
		got := run(t, eng, slice.WithSearch("name", "LOMBOK"))
		if len(got) != 1 || got[0] != "DOM-001" {
			t.Fatalf("unexpected rules %v", got)
		}
	})

	t.Run("search_treats_wildcards_literally", func(t *testing.T) {
		eng, _, _ := setup(t)
		got := run(t, eng, slice.WithSearch("DESCRIPTION", "%_"))
		if len(got) != 1 || got[0] != "APP-001" {
			t.Fatalf("unexpected rules %v", got)
		}
	})

	t.Run("blank_search_word_is_ignored", func(t *testing.T) {
		eng, _, _ := setup(t)
		got := run(t, eng, slice.WithSearch("NAME", "   "))
		if len(got) != 4 {
			t.Fatalf("expected all 4 rules, got %v", got)
		}
	})
}

// RunFeedbackStatusContract checks the conditional status swap review
// transitions rely on.
func RunFeedbackStatusContract(t *testing.T, makeRepo FeedbackFactory) {
	t.Helper()

	t.Run("swap_from_expected_status", func(t *testing.T) {
		repo, mk, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		fb, err := repo.Create(ctx, mk(1))
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		out, err := repo.SwapStatus(ctx, fb.ID, model.FeedbackPending, model.FeedbackLLMApproved)
		if err != nil {
			t.Fatalf("swap: %v", err)
		}
		if out.Status != model.FeedbackLLMApproved || out.Payload != fb.Payload {
			t.Fatalf("unexpected row after swap: %+v", out)
		}
		if out.UpdatedAt.Before(fb.UpdatedAt) {
			t.Fatalf("updated_at went backwards: %v -> %v", fb.UpdatedAt, out.UpdatedAt)
		}
		got, err := repo.GetByID(ctx, fb.ID)
		if err != nil || got.Status != model.FeedbackLLMApproved {
			t.Fatalf("swap not persisted: %+v %v", got, err)
		}
	})

	t.Run("swap_from_stale_status_conflicts", func(t *testing.T) {
		repo, mk, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		fb, err := repo.Create(ctx, mk(1))
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		if _, err := repo.SwapStatus(ctx, fb.ID, model.FeedbackPending, model.FeedbackRejected); err != nil {
			t.Fatalf("first swap: %v", err)
		}
		_, err = repo.SwapStatus(ctx, fb.ID, model.FeedbackPending, model.FeedbackLLMApproved)
		if !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
		got, _ := repo.GetByID(ctx, fb.ID)
		if got.Status != model.FeedbackRejected {
			t.Fatalf("losing swap overwrote status: %s", got.Status)
		}
	})

	t.Run("swap_missing_not_found", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		_, err := repo.SwapStatus(context.Background(), 999999, model.FeedbackPending, model.FeedbackLLMApproved)
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func RunPingerContract(t *testing.T, makePinger PingerFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		p, cleanup := makePinger(t)
		t.Cleanup(cleanup)
		if err := p.Ping(context.Background()); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})
}
