package merge

import (
	"context"
	"fmt"
)

// Mode selects how Reconcile treats rows that exist but are not desired.
type Mode struct {
	// RemoveMissing removes existing rows absent from the desired set.
	// A full resync sets it; an incremental update leaves it off unless the
	// caller asks for missing items to be deleted.
	RemoveMissing bool

	// Purge removes rows instead of tombstoning them.
	Purge bool
}

// Plan is the partition of a reconciliation by identity.
type Plan[T Entity] struct {
	Remove []int64
	Create []T
	Update []T
	Purge  bool
}

// Empty reports whether applying the plan issues no calls.
func (p Plan[T]) Empty() bool {
	return len(p.Remove) == 0 && len(p.Create) == 0 && len(p.Update) == 0
}

// Diff partitions existing keys and desired items. Items only in existing
// are removed (when the mode asks for it), items only in desired are created
// and items in both are updated. A key repeated in desired keeps its first
// position and its last value. Diff has no side effects.
func Diff[T Entity](existing []int64, desired []T, mode Mode) Plan[T] {
	have := make(map[int64]bool, len(existing))
	for _, k := range existing {
		have[k] = true
	}

	plan := Plan[T]{Purge: mode.Purge}
	wanted := make(map[int64]bool, len(desired))
	createAt := make(map[int64]int)
	updateAt := make(map[int64]int)
	for _, item := range desired {
		k := item.Key()
		if i, ok := createAt[k]; ok {
			plan.Create[i] = item
			continue
		}
		if i, ok := updateAt[k]; ok {
			plan.Update[i] = item
			continue
		}
		wanted[k] = true
		if have[k] {
			updateAt[k] = len(plan.Update)
			plan.Update = append(plan.Update, item)
		} else {
			createAt[k] = len(plan.Create)
			plan.Create = append(plan.Create, item)
		}
	}

	if mode.RemoveMissing {
		for _, k := range existing {
			if !wanted[k] {
				plan.Remove = append(plan.Remove, k)
				wanted[k] = true
			}
		}
	}
	return plan
}

// Apply executes plan against b: removals, then creates, then updates. Each
// call is an independent statement; the first failure stops the run and
// earlier calls stay applied.
func Apply[T Entity](ctx context.Context, b Backend[T], plan Plan[T]) error {
	for _, k := range plan.Remove {
		if err := Delete(ctx, b, k, plan.Purge); err != nil {
			return fmt.Errorf("reconcile: %w", err)
		}
	}
	for _, item := range plan.Create {
		if err := Create(ctx, b, item); err != nil {
			return fmt.Errorf("reconcile: %w", err)
		}
	}
	for _, item := range plan.Update {
		if err := Update(ctx, b, item, UpdateOptions{AutoCreate: true, Purge: plan.Purge}); err != nil {
			return fmt.Errorf("reconcile: %w", err)
		}
	}
	return nil
}

// Reconcile computes and applies the plan that moves existing to desired.
func Reconcile[T Entity](ctx context.Context, b Backend[T], existing []int64, desired []T, mode Mode) (Plan[T], error) {
	plan := Diff(existing, desired, mode)
	return plan, Apply(ctx, b, plan)
}
