package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"rio-cli/internal/model"
)

func newToolsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and update gallery-dl / yt-dlp on the backend",
	}
	cmd.AddCommand(newToolsStatusCmd(a))
	cmd.AddCommand(newToolsUpdateCmd(a))
	return cmd
}

func newToolsStatusCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show tool versions and available updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			ts, err := c.ToolsStatus(cmd.Context())
			if err != nil {
				return err
			}
			return writeOut(cmd, a, toolsTable(ts))
		},
	}
}

// toolsTable has the JSON shape of ToolsStatus plus a table layout.
type toolsTable model.ToolsStatus

func (t toolsTable) TableHeader() []string {
	return []string{"tool", "available", "version", "latest", "update", "error"}
}

func (t toolsTable) TableRows() [][]any {
	ts := model.ToolsStatus(t)
	var rows [][]any
	for _, tool := range []model.Tool{model.ToolGalleryDL, model.ToolYTDLP} {
		info := ts.Info(tool)
		rows = append(rows, []any{string(tool), info.Available, info.Version, info.LatestVersion, info.HasUpdate, info.Error})
	}
	return rows
}

func newToolsUpdateCmd(a *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "update <gallery-dl|yt-dlp>",
		Short: "Update a tool on the backend (Linux backends only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, ok := model.ParseTool(args[0])
			if !ok {
				return errInvalidArg("tool", args[0], string(model.ToolGalleryDL), string(model.ToolYTDLP))
			}
			s, err := a.session(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			if _, err := s.LoadTools(cmd.Context()); err != nil {
				return err
			}
			if !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Update %s on the backend?", tool))
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("update cancelled")
				}
			}
			res, err := s.UpdateTool(cmd.Context(), tool)
			if err != nil {
				return err
			}
			if err := writeOut(cmd, a, res); err != nil {
				return err
			}
			if !res.OK {
				return fmt.Errorf("update %s failed: %s", tool, res.Message)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// confirm asks a yes/no question. Without a terminal on in it refuses to
// guess and asks for --yes.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	if f, ok := in.(*os.File); ok && !isTerminal(f) {
		return false, errors.New("not a terminal: pass --yes to confirm")
	}
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
