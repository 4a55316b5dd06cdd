package main

import (
	"context"
)

const (
	actionReport = "report"
	actionAssign = "assign"
	actionDelete = "delete"
)

// fixOrphans reports, reassigns or deletes the results whose course was deleted.
// Nothing is written unless apply is set.
func (cli *commandLine) fixOrphans(action, courseID string, apply bool) error {
	ctx := context.Background()
	orphans, err := cli.resultSvc.FindOrphans(ctx)
	if err != nil {
		return err
	}
	cli.printf("%d orphaned results\n", len(orphans))
	for _, r := range orphans {
		cli.printf("  %s: user %s, course %s, %d%% %s\n", r.ID, r.UserID, r.CourseID, r.Progress.Overall.Percentage, r.Status)
	}
	if action == actionReport || len(orphans) == 0 {
		return nil
	}
	if action == actionAssign {
		c, err := cli.courseSvc.GetByID(ctx, courseID)
		if err != nil {
			return err
		}
		cli.printf("target course: %s (%s)\n", c.ID, c.DisplayTitle())
	}
	if !apply {
		cli.printf("dry run: %s %d results (use -apply)\n", action, len(orphans))
		return nil
	}

	switch action {
	case actionAssign:
		n, err := cli.resultSvc.Reassign(ctx, orphans, courseID)
		if err != nil {
			return err
		}
		cli.printf("%d results assigned to course %s, %d skipped\n", n, courseID, len(orphans)-n)
	case actionDelete:
		ids := make([]string, 0, len(orphans))
		for _, r := range orphans {
			ids = append(ids, r.ID)
		}
		if err = cli.resultSvc.Delete(ctx, ids...); err != nil {
			return err
		}
		cli.printf("%d results deleted\n", len(ids))
	}
	return nil
}
