package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jpfielding/rasterbmp.go/pkg/util"
	"github.com/spf13/cobra"
)

// NewFilterCmd follows the cups filter calling convention
func NewFilterCmd(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter job-id user title copies options [file]",
		Short: "run as a cups filter",
		Long:  "reads the raster stream from file or stdin as cups invokes filters and writes the pages into the output directory",
		Args:  cobra.RangeArgs(5, 6),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyOutputFlags(cmd, a.cfg); err != nil {
				return err
			}
			if _, err := strconv.Atoi(args[3]); err != nil {
				return fmt.Errorf("copies %q: %w", args[3], err)
			}
			meta := util.JobMeta{ID: args[0], User: args[1], Title: args[2], Options: args[4]}
			path := "-"
			if len(args) == 6 {
				path = args[5]
			}
			in, closer, err := openInput(path)
			if err != nil {
				return err
			}
			defer closer.Close()
			_, err = runJob(ctx, a.cfg, in, meta)
			return err
		},
	}
	addOutputFlags(cmd)
	return cmd
}
