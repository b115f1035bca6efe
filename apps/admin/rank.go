package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/trezcool/evalboard/core/ranking"
)

type rankOptions struct {
	groups     bool
	taskID     string
	min        int
	unassigned bool
}

func (cli *commandLine) rank(ctx context.Context, ro rankOptions) error {
	snap, err := cli.store.Refresh(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing state")
	}

	opts := ranking.OptionsFromConfig(cli.conf)
	opts.TaskID = ro.taskID
	if ro.min > 0 {
		opts.MinEvaluations = ro.min
	}
	opts.IncludeUnassigned = ro.unassigned

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	if ro.groups {
		fmt.Fprintln(w, "RANK\tGROUP\tEVALS\tTOTAL\tMAX\tEFFICIENCY\tPARTICIPATION")
		for _, gr := range ranking.Groups(snap.Input(), opts) {
			fmt.Fprintf(w, "%d\t%s\t%d\t%.2f\t%.2f\t%.2f%%\t%d/%d\n",
				gr.Rank, displayName(gr.Group.Name, gr.Group.ID), gr.EvalCount, gr.TotalScore, gr.MaxScoreSum,
				gr.Efficiency, gr.ParticipantsCount, gr.GroupSize)
		}
	} else {
		fmt.Fprintln(w, "RANK\tSTUDENT\tROLL\tEVALS\tTOTAL\tMAX\tEFFICIENCY")
		for _, sr := range ranking.Students(snap.Input(), opts) {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%.2f\t%.2f\t%.2f%%\n",
				sr.Rank, displayName(sr.Student.Name, sr.Student.ID), sr.Student.Roll, sr.EvalCount,
				sr.TotalScore, sr.MaxScoreSum, sr.Efficiency)
		}
	}
	return w.Flush()
}

func displayName(name, id string) string {
	if name == "" {
		return id
	}
	return name
}
