package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MarciaSuzuki/Tripod/pkg/logger"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod/audio"
	"github.com/MarciaSuzuki/Tripod/pkg/utils"
	"github.com/spf13/cobra"
)

func exportCSVCmd() *cobra.Command {
	var outDir string
	var stdout bool

	cmd := &cobra.Command{
		Use:   "export-csv <id>",
		Short: "Export an entry's tagged sentences as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := withTimeout()
			defer cancel()

			entry, _, err := svc.LoadEntry(ctx, args[0])
			if err != nil {
				fmt.Printf("❌ Entry not found: %s\n", args[0])
				return err
			}

			out, err := svc.ExportCSV(*entry)
			if errors.Is(err, tripod.ErrNothingToExport) {
				fmt.Println("📭 Nothing to export: the transcript has no sentences")
				return err
			}
			if err != nil {
				return err
			}

			if stdout {
				fmt.Print(out)
				return nil
			}
			path := filepath.Join(outDir, svc.CSVFileName(*entry))
			if err := utils.WriteFileAtomic(path, []byte(out)); err != nil {
				fmt.Printf("❌ Failed to write %s: %v\n", path, err)
				return err
			}
			fmt.Printf("✅ Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print the CSV instead of writing a file")
	return cmd
}

func exportJSONCmd() *cobra.Command {
	var outDir string
	var limit int64

	cmd := &cobra.Command{
		Use:   "export-json <id>",
		Short: "Export an entry and its audio as a JSON package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []tripod.Option
			if cmd.Flags().Changed("audio-limit") {
				opts = append(opts, tripod.WithAudioExportLimit(limit))
			}
			svc, err := createService(cmd, opts...)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := withTimeout()
			defer cancel()

			pkg, err := svc.ExportPackage(ctx, args[0])
			if err != nil {
				fmt.Printf("❌ Failed to export %s: %v\n", args[0], err)
				return err
			}

			path := filepath.Join(outDir, pkg.FileName)
			if err := utils.WriteFileAtomic(path, pkg.Data); err != nil {
				fmt.Printf("❌ Failed to write %s: %v\n", path, err)
				return err
			}
			fmt.Printf("✅ Wrote %s\n", path)
			if !pkg.AudioEmbedded {
				fmt.Println("   (metadata only, no audio embedded)")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().Int64Var(&limit, "audio-limit", 20<<20, "largest audio in bytes embedded in the package")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <package.json>...",
		Short: "Import entries from JSON packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			var failed int
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					fmt.Printf("❌ %s: %v\n", path, err)
					failed++
					continue
				}

				ctx, cancel := withTimeout()
				entry, err := svc.ImportPackage(ctx, data)
				cancel()
				if err != nil {
					fmt.Printf("❌ %s: %v\n", path, err)
					logger.Warnf("Import of %s failed: %v", path, err)
					failed++
					continue
				}
				fmt.Printf("✅ Imported %s from %s\n", entry.ID, path)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d package(s) failed to import", failed, len(args))
			}
			return nil
		},
	}
}

func qcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "qc <id>",
		Short: "Run the quality checks on a stored entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := withTimeout()
			defer cancel()

			entry, _, err := svc.LoadEntry(ctx, args[0])
			if err != nil {
				fmt.Printf("❌ Entry not found: %s\n", args[0])
				return err
			}

			report := svc.CheckEntry(*entry)
			fmt.Println(report.String())
			if !report.OK() {
				return fmt.Errorf("entry %s failed quality checks", entry.ID)
			}
			return nil
		},
	}
}

func progressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show recorded time against the collection goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := withTimeout()
			defer cancel()

			sum, err := svc.Progress(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("\n⏱  %s\n", sum)
			return nil
		},
	}
}

func trimCmd() *cobra.Command {
	var start, end float64

	cmd := &cobra.Command{
		Use:   "trim <in.wav> <out.wav>",
		Short: "Cut a WAV recording to [start, end) seconds",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			clip, err := audio.Decode(f)
			if err != nil {
				fmt.Printf("❌ Failed to read %s: %v\n", args[0], err)
				return err
			}
			if !cmd.Flags().Changed("end") {
				end = clip.Seconds()
			}

			trimmed, err := audio.Trim(clip, start, end)
			if err != nil {
				fmt.Printf("❌ %v\n", err)
				return err
			}
			data, err := audio.EncodeBytes(trimmed)
			if err != nil {
				return err
			}
			if err := utils.WriteFileAtomic(args[1], data); err != nil {
				return err
			}

			fmt.Printf("✅ Wrote %s (%.2fs)\n", args[1], trimmed.Seconds())
			logger.Infof("Trimmed %s from %.2fs to %.2fs", args[0], clip.Seconds(), trimmed.Seconds())
			return nil
		},
	}

	cmd.Flags().Float64Var(&start, "start", 0, "start in seconds")
	cmd.Flags().Float64Var(&end, "end", 0, "end in seconds (default: end of the recording)")
	return cmd
}
