package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sorter/core/domain"
	"sorter/core/service/categorize"
	"sorter/core/service/extraction"
	"sorter/internal/bootstrap"
)

func runExtract(ctx context.Context, cmd *cobra.Command, r *bootstrap.Runner) error {
	res, err := r.Extract(ctx)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), res)
	return nil
}

func runUpload(ctx context.Context, cmd *cobra.Command, r *bootstrap.Runner) error {
	n, err := r.Upload(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d contacts\n", n)
	return nil
}

func runClassify(ctx context.Context, cmd *cobra.Command, r *bootstrap.Runner) error {
	outcome, err := r.Classify(ctx, bootstrap.NewRunID(), bootstrap.ClassifyOptions{
		FromFile: fromFileFlag,
		OutPath:  outFlag,
		DryRun:   dryRunFlag,
	})
	if outcome != nil {
		printOutcome(cmd.OutOrStdout(), outcome, dryRunFlag)
	}
	return err
}

func runDedupe(ctx context.Context, cmd *cobra.Command, r *bootstrap.Runner) error {
	outcome, err := r.Dedupe(ctx, bootstrap.NewRunID(), dryRunFlag)
	if outcome != nil {
		w := cmd.OutOrStdout()
		for _, g := range outcome.Plan.Duplicates {
			fmt.Fprintf(w, "%s: keep %s (%s)\n", g.Key, g.Survivor.ID, g.Survivor.Name())
			for _, c := range g.Archived {
				fmt.Fprintf(w, "  archive %s (%s)\n", c.ID, c.Name())
			}
		}
		printOutcome(w, outcome, dryRunFlag)
	}
	return err
}

func runAll(ctx context.Context, cmd *cobra.Command, r *bootstrap.Runner) error {
	report, err := r.Run(ctx)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run %s %s\n", report.RunID, report.Status)
	fmt.Fprintf(w, "extracted %d, uploaded %d, classified %d, duplicate groups %d, failed %d\n",
		report.Extracted, report.Uploaded, report.Classified, report.Duplicates, report.Failed)
	printCounts(w, report.Counts)
	return nil
}

func runCategories(ctx context.Context, cmd *cobra.Command, r *bootstrap.Runner) error {
	categories, err := r.Categories(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLOR")
	for _, c := range categories {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.Color)
	}
	return tw.Flush()
}

// =============================================================================
// Output
// =============================================================================

func printSummary(w io.Writer, res *extraction.Result) {
	s := res.Summary
	fmt.Fprintf(w, "%-22s %d\n", "handles:", s.Handles)
	fmt.Fprintf(w, "%-22s %d\n", "skipped short codes:", s.SkippedShortCodes)
	fmt.Fprintf(w, "%-22s %d\n", "skipped bots:", s.SkippedBots)
	fmt.Fprintf(w, "%-22s %d\n", "skipped low activity:", s.SkippedLowActivity)
	fmt.Fprintf(w, "%-22s %d (%d saved, %d unsaved)\n", "extracted:", s.Extracted(), s.Saved, s.Unsaved)
	if s.AddressBookDegraded {
		fmt.Fprintln(w, "warning: address book unavailable, no saved-contact matches")
	}

	top := res.Top(extraction.TopContactsLimit)
	if len(top) == 0 {
		return
	}
	fmt.Fprintln(w, "\ntop contacts:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, c := range top {
		name := c.Identifier
		if c.DisplayName != nil {
			name = *c.DisplayName
		}
		fmt.Fprintf(tw, "%2d.\t%s\t%d msgs\n", i+1, name, c.MessageCount)
	}
	tw.Flush()
}

func printOutcome(w io.Writer, outcome *bootstrap.ClassifyOutcome, dryRun bool) {
	plan := outcome.Plan
	if dryRun {
		printPlan(w, plan)
	}
	if len(plan.Skipped) > 0 {
		fmt.Fprintf(w, "skipped %d contacts with unreadable history\n", len(plan.Skipped))
	}
	if a := outcome.Applied; a != nil {
		fmt.Fprintf(w, "written %d, failed %d, unpublished %d\n", a.Written, len(a.Failed), a.PublishFailures)
	}

	counts := plan.Counts()
	if outcome.Counts != nil {
		counts = make(map[string]int, len(outcome.Counts))
		for id, n := range outcome.Counts {
			counts[string(id)] = n
		}
	}
	printCounts(w, counts)
}

func printPlan(w io.Writer, plan *categorize.Plan) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTACT\tCATEGORY\tSOURCE\tREASON")
	for _, a := range plan.Assignments {
		category := "-"
		if a.Category != nil {
			category = string(*a.Category)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ContactID, category, a.Source, a.Reason)
	}
	tw.Flush()
}

func printCounts(w io.Writer, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w, "\ncategory counts:")
	order := make(map[string]int)
	for i, c := range domain.DefaultCategories() {
		order[string(c.ID)] = i
	}
	sort.SliceStable(keys, func(i, j int) bool {
		oi, iok := order[keys[i]]
		oj, jok := order[keys[j]]
		if iok != jok {
			return iok
		}
		return oi < oj
	})
	for _, k := range keys {
		fmt.Fprintf(w, "  %-20s %d\n", k, counts[k])
	}
}
