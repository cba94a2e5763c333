package service

import (
	"context"
	"log/slog"

	"github.com/Strob0t/professor/internal/domain/research"
	"github.com/Strob0t/professor/internal/port/fragment"
)

// CombineResult describes the outcome of combining a task's stored fragments.
type CombineResult struct {
	Context   string
	Included  int
	Truncated bool
}

// CombineFragments reads the fragments stored at location in name order and
// packs them into one context of at most budget characters. Fragments are read
// lazily, so reading stops once the budget is spent. Unreadable fragments are
// logged and skipped. ok is false when nothing could be included.
func CombineFragments(ctx context.Context, store fragment.Store, location string, budget int) (CombineResult, bool, error) {
	names, err := store.List(ctx, location)
	if err != nil {
		return CombineResult{}, false, err
	}

	c := research.NewCombiner(budget)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return CombineResult{}, false, err
		}
		text, err := store.Read(ctx, location, name)
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable fragment", "fragment", name, "error", err)
			continue
		}
		if !c.Add(text) {
			break
		}
	}

	out, ok := c.Result()
	res := CombineResult{Context: out, Included: c.Included(), Truncated: c.Truncated()}
	slog.InfoContext(ctx, "fragments combined",
		"available", len(names),
		"included", res.Included,
		"chars", c.Used(),
		"truncated", res.Truncated,
	)
	return res, ok, nil
}
