package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"picture-analysis/internal/inbox"
	"picture-analysis/internal/seed"
)

func newSeedCommand(opts *Options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:     "seed",
		Short:   "Load groups and distortion sets from a YAML file",
		Example: `  analysisctl seed --file fixtures/groups.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := seed.Load(file)
			if err != nil {
				return err
			}
			app, err := opts.App()
			if err != nil {
				return err
			}
			res, err := seed.Apply(cmd.Context(), f, app.GroupWriter, app.DistortionWriter)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return opts.printJSON(res)
			}
			fmt.Fprintf(opts.Out, "stored %d groups, %d distortion sets (%d pairs)\n", res.Groups, res.Sets, res.Pairs)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newWatchCommand(opts *Options) *cobra.Command {
	var w inbox.Watcher
	var enqueue bool
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Register images dropped into a directory",
		Long: `Watches a directory and registers every image written to it. With --steps
each new picture also gets the listed tasks, run in-process unless --enqueue
is given.`,
		Example: `  analysisctl watch ./inbox --steps edge_detect,scale_image --group cam-north`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			if _, err := inbox.ChainFor(w.Steps, "check", ""); err != nil {
				return err
			}
			client, _, err := opts.queueFor(app, enqueue)
			if err != nil {
				return err
			}
			w.Dir = pos[0]
			w.Pictures = app.PictureService
			w.Tasks = newTaskService(client)
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().StringSliceVar(&w.Steps, "steps", nil, "tasks to run for each new picture")
	cmd.Flags().StringVar(&w.GroupID, "group", "", "group id recorded on new pictures")
	cmd.Flags().StringVar(&w.SnapID, "snap", "", "snap id recorded on new pictures")
	cmd.Flags().DurationVar(&w.Settle, "settle", inbox.DefaultSettle, "quiet period before a file is ingested")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "send chains to the queue instead of running in-process")
	return cmd
}
