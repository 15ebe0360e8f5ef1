package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"picture-analysis/internal/pictures"
)

func newRegisterCommand(opts *Options) *cobra.Command {
	var in pictures.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Record an imported source picture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			pic, err := app.PictureService.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			return opts.printPictures([]pictures.Picture{pic})
		},
	}
	cmd.Flags().StringVar(&in.ID, "id", "", "picture id (generated when empty)")
	cmd.Flags().StringVar(&in.URI, "uri", "", "path of the image file")
	cmd.Flags().StringVar(&in.Filename, "filename", "", "file name (defaults to the uri base name)")
	cmd.Flags().StringVar(&in.GroupID, "group", "", "group id")
	cmd.Flags().StringVar(&in.SnapID, "snap", "", "snap id")
	_ = cmd.MarkFlagRequired("uri")
	return cmd
}

func newListCommand(opts *Options) *cobra.Command {
	var filter pictures.Filter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List picture documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			pics, err := app.Pictures.Search(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return opts.printPictures(pics)
		},
	}
	cmd.Flags().StringVar(&filter.SourceImageID, "source", "", "only pictures derived from this id")
	cmd.Flags().StringVar(&filter.GroupID, "group", "", "group id")
	cmd.Flags().StringVar(&filter.SnapID, "snap", "", "snap id")
	cmd.Flags().StringVar(&filter.AnalysisType, "analysis-type", "", "analysis type, e.g. edge_detect")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "maximum rows")
	return cmd
}

func newBrightnessCommand(opts *Options) *cobra.Command {
	var threshold float64
	cmd := &cobra.Command{
		Use:   "brightness <picture-id>",
		Short: "Report the mean pixel value of a picture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			var limit *float64
			if cmd.Flags().Changed("threshold") {
				limit = &threshold
			}
			out, err := app.PictureService.Brightness(cmd.Context(), pos[0], limit)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return opts.printJSON(out)
			}
			fmt.Fprintf(opts.Out, "%s mean=%.2f", out.PictureID, out.Mean)
			if out.TooDark != nil {
				fmt.Fprintf(opts.Out, " too_dark=%t", *out.TooDark)
			}
			fmt.Fprintln(opts.Out)
			return nil
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "mark the picture too dark below this mean")
	return cmd
}
