package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/onionentry/internal/config"
)

//go:embed templates/onionentry.yaml templates/torrc
var templates embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file template",
		Long: `Init writes a commented onionentry.yaml with every setting at its default
value, and optionally a minimal torrc.

Examples:
  # Create onionentry.yaml in the current directory
  onionentry init

  # Also write a torrc for the image
  onionentry init --torrc docker/torrc

  # Force overwrite existing files
  onionentry init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().String("torrc", "",
		"Also write a torrc template to this path")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing files")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	torrcPath, err := cmd.Flags().GetString("torrc")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if err := writeTemplate("templates/onionentry.yaml", outputPath, force); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", outputPath)

	if torrcPath != "" {
		if err := writeTemplate("templates/torrc", torrcPath, force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created torrc: %s\n", torrcPath)
	}
	return nil
}

// writeTemplate copies an embedded template to path, creating parent
// directories. An existing file is kept unless force is set.
func writeTemplate(name, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("file already exists: %s (use -f to overwrite)", path)
		}
	}

	content, err := templates.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
