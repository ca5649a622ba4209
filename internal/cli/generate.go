package cli

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/kolah/schemaforge/internal/codegen"
	"github.com/kolah/schemaforge/internal/config"
)

func GenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate code from OpenAPI documents",
	}

	config.BindCommonFlags(cmd)
	cmd.AddCommand(
		NewJavaCmd(),
		NewKotlinCmd(),
		NewGoCmd(),
	)

	return cmd
}

func NewJavaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "java",
		Short: "Generate Java (Micronaut) models and API interfaces",
		RunE:  runGenerate("java"),
	}
	bindJVMFlags(cmd)
	return cmd
}

func NewKotlinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kotlin",
		Short: "Generate Kotlin (Micronaut) models and API interfaces",
		RunE:  runGenerate("kotlin"),
	}
	bindJVMFlags(cmd)
	return cmd
}

func NewGoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "go",
		Short: "Generate Go types, net/http clients and servers",
		RunE:  runGenerate("go"),
	}
	cmd.Flags().StringSlice("initialisms", nil, "Additional initialisms")
	return cmd
}

func bindJVMFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("date-time", "", "Date-time type: offset, zoned, local")
	flags.String("nullable", "", "Nullable convention: marker, wrapper, union")
}

func runGenerate(language string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger := newLogger(cmd.ErrOrStderr(), verbose)

		cfg, err := config.Load(cmd, language)
		if err != nil {
			return err
		}

		gen, err := codegen.New(cfg, logger)
		if err != nil {
			return fmt.Errorf("creating generator: %w", err)
		}

		docs, err := gen.Load()
		if err != nil {
			return fmt.Errorf("loading inputs: %w", err)
		}

		outputs, err := gen.Generate(cmd.Context(), docs...)
		if err != nil {
			return fmt.Errorf("generating code: %w", err)
		}

		paths := slices.Sorted(maps.Keys(outputs))

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if dryRun {
			out := cmd.OutOrStdout()
			for _, p := range paths {
				fmt.Fprintf(out, "// %s\n%s\n", p, outputs[p])
			}
			return nil
		}

		for _, p := range paths {
			path := filepath.Join(cfg.OutputDir, filepath.FromSlash(p))
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(outputs[p]), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			logger.Debug("written", slog.String("path", path))
		}
		cmd.PrintErrf("Generated %d files in %s\n", len(paths), cfg.OutputDir)

		return nil
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
