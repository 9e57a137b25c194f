package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/papercomputeco/scout/pkg/cliui"
	"github.com/papercomputeco/scout/pkg/topic"
	"github.com/papercomputeco/scout/pkg/utils"
)

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

const nearestWidth = 60

// VerdictRows renders verdicts as table rows in input order.
func VerdictRows(verdicts []topic.Verdict) [][]string {
	rows := make([][]string, 0, len(verdicts))
	for _, v := range verdicts {
		distance := "-"
		if v.Distance != topic.NoNeighborDistance {
			distance = strconv.FormatFloat(float64(v.Distance), 'f', 4, 32)
		}

		mark := cliui.FailMark
		if v.Fresh {
			mark = cliui.SuccessMark
		}

		rows = append(rows, []string{
			mark,
			v.Candidate.Title,
			strconv.FormatFloat(v.Candidate.Score, 'g', -1, 64),
			distance,
			utils.Truncate(v.Nearest, nearestWidth),
		})
	}
	return rows
}

// PrintVerdicts writes the verdict table.
func PrintVerdicts(w io.Writer, verdicts []topic.Verdict) {
	if len(verdicts) == 0 {
		fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render("No candidates."))
		return
	}
	fmt.Fprintln(w, cliui.Table(
		[]string{"", "Candidate", "Score", "Distance", "Nearest topic"},
		VerdictRows(verdicts),
	))
}

// PrintOutcome writes the verdict table followed by the selection line.
func PrintOutcome(w io.Writer, o *topic.Outcome) {
	fmt.Fprintf(w, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Threshold:"),
		cliui.ValueStyle.Render(strconv.FormatFloat(o.Threshold, 'g', -1, 64)),
	)
	PrintVerdicts(w, o.Verdicts)

	if o.Selected == nil {
		fmt.Fprintf(w, "\n  %s %s\n\n", cliui.SkipMark, cliui.DimStyle.Render(o.Err().Error()))
		return
	}

	fmt.Fprintf(w, "\n  %s %s %s\n",
		cliui.SuccessMark,
		cliui.TopicStyle.Render(o.Selected.Title),
		cliui.DimStyle.Render(fmt.Sprintf("(score %g, %d of %d fresh)", o.Selected.Score, len(o.Fresh), len(o.Verdicts))),
	)
	if o.Selected.Justification != "" {
		fmt.Fprintf(w, "    %s\n", cliui.DimStyle.Render(o.Selected.Justification))
	}
	fmt.Fprintln(w)
}
