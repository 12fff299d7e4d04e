package contrib

import (
	"context"
	"log/slog"
)

// ValidateSubmission classifies a prospective submission against existing
// contributions. A failing store query is treated as "no conflict": the
// error is logged and an all-false report returned, so a transient
// persistence fault never silently blocks a legitimate submission.
func ValidateSubmission(ctx context.Context, store Store, q ConflictQuery) ConflictReport {
	report, err := store.CheckConflicts(ctx, q)
	if err != nil {
		slog.Warn("conflict check failed; allowing submission",
			slog.String("filename", q.Filename),
			slog.String("username", q.Username),
			slog.Any("err", err))
		return ConflictReport{}
	}
	return report
}
