package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"picture-analysis/internal/pictures"
)

func (o *Options) printJSON(v any) error {
	enc := json.NewEncoder(o.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (o *Options) printPictures(pics []pictures.Picture) error {
	if o.jsonOutput {
		return o.printJSON(pics)
	}
	w := tabwriter.NewWriter(o.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tANALYSIS\tEDGE\tGROUP\tSNAP\tURI")
	for _, p := range pics {
		src := ""
		if p.SourceImageID != nil {
			src = *p.SourceImageID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, src, p.AnalysisType, p.EdgeDetectType, p.GroupID, p.SnapID, p.URI)
	}
	return w.Flush()
}

func (o *Options) printRun(res runResult) error {
	if o.jsonOutput {
		return o.printJSON(res)
	}
	w := tabwriter.NewWriter(o.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "task %s (%s)\n", res.TaskID, res.Mode)
	fmt.Fprintln(w, "STEP\tOUTPUT\tID\tSTATUS")
	for _, step := range res.Steps {
		names := make([]string, 0, len(step.IDs))
		for name := range step.IDs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", step.Task, name, step.IDs[name], step.Status[name])
		}
	}
	return w.Flush()
}
