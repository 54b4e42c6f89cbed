package cli

import (
	"github.com/spf13/cobra"
)

func newDestCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dest",
		Short: "Show or change the backend's download folder",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the download folder and backend info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			info, err := c.AppInfo(cmd.Context())
			if err != nil {
				return err
			}
			return writeOut(cmd, a, info)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <path>",
		Short: "Change the download folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.SetDest(cmd.Context(), args[0]); err != nil {
				return err
			}
			return writeOut(cmd, a, map[string]any{"dest_dir": s.Snapshot().DestDir})
		},
	})
	return cmd
}
