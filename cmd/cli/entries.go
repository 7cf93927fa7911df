package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/MarciaSuzuki/Tripod/pkg/logger"
	"github.com/MarciaSuzuki/Tripod/pkg/models"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod/progress"
	"github.com/MarciaSuzuki/Tripod/pkg/utils"
	"github.com/spf13/cobra"
)

// entryFlags are the metadata fields settable from the command line.
type entryFlags struct {
	date, langName, langCode, dialect string
	genre, register, style, prompt    string
	context, speaker, collector       string
	consent, notes, profile           string
	rich, plain                       string
}

func (f *entryFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.date, "date", "", "recording date, YYYY-MM-DD")
	fl.StringVar(&f.langName, "language", "", "language name")
	fl.StringVar(&f.langCode, "code", "", "language code (ISO 639 / BCP 47)")
	fl.StringVar(&f.dialect, "dialect", "", "dialect or variety")
	fl.StringVar(&f.genre, "genre", "", "genre")
	fl.StringVar(&f.register, "register", "", "register")
	fl.StringVar(&f.style, "style", "", "style")
	fl.StringVar(&f.prompt, "prompt", "", "elicitation prompt")
	fl.StringVar(&f.context, "context", "", "performance context")
	fl.StringVar(&f.speaker, "speaker", "", "speaker")
	fl.StringVar(&f.collector, "collector", "", "collector")
	fl.StringVar(&f.consent, "consent", "", "consent level")
	fl.StringVar(&f.notes, "notes", "", "notes copied onto every CSV row")
	fl.StringVar(&f.profile, "profile", "", "marker profile to apply")
	fl.StringVar(&f.rich, "rich", "", "file holding the HTML transcript")
	fl.StringVar(&f.plain, "transcript", "", "file holding the plain transcript with [LA:X]...[/LA:X] tags")
}

// apply overwrites the fields of e whose flags were given.
func (f *entryFlags) apply(cmd *cobra.Command, e *models.Entry) error {
	set := func(name string, dst *string, val string) {
		if cmd.Flags().Changed(name) {
			*dst = val
		}
	}
	set("date", &e.RecordedOn, f.date)
	set("language", &e.Language.Name, f.langName)
	set("code", &e.Language.Code, f.langCode)
	set("dialect", &e.Language.Dialect, f.dialect)
	set("genre", &e.Genre, f.genre)
	set("register", &e.Register, f.register)
	set("style", &e.Style, f.style)
	set("prompt", &e.Prompt, f.prompt)
	set("context", &e.Context, f.context)
	set("speaker", &e.Speaker, f.speaker)
	set("collector", &e.Collector, f.collector)
	set("consent", &e.Consent, f.consent)
	set("notes", &e.Notes, f.notes)

	if f.rich != "" {
		data, err := os.ReadFile(f.rich)
		if err != nil {
			return fmt.Errorf("failed to read transcript: %w", err)
		}
		e.Transcript = models.TranscriptText{Rich: string(data)}
	} else if f.plain != "" {
		data, err := os.ReadFile(f.plain)
		if err != nil {
			return fmt.Errorf("failed to read transcript: %w", err)
		}
		e.Transcript = models.TranscriptText{Plain: string(data)}
	}
	return nil
}

func readAudio(path string) (*models.AudioBlob, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	return &models.AudioBlob{Data: data}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEntry(e models.Entry) {
	fmt.Printf("   ID:        %s\n", e.ID)
	if e.RecordedOn != "" {
		fmt.Printf("   Date:      %s\n", e.RecordedOn)
	}
	if e.Language.Name != "" || e.Language.Code != "" {
		fmt.Printf("   Language:  %s (%s)\n", e.Language.Name, e.Language.Code)
	}
	if e.Genre != "" {
		fmt.Printf("   Genre:     %s\n", e.Genre)
	}
	if e.Speaker != "" {
		fmt.Printf("   Speaker:   %s\n", e.Speaker)
	}
	if len(e.MarkersUsed) > 0 {
		fmt.Printf("   Markers:   %s\n", strings.Join(e.MarkersUsed, ", "))
	}
	if e.Audio.Present {
		dur := "unknown length"
		if e.Audio.DurationSec != nil {
			dur = progress.FormatHMS(*e.Audio.DurationSec)
		}
		fmt.Printf("   Audio:     %s, %d bytes, %s\n", e.Audio.MimeType, e.Audio.Size, dur)
	}
}

func newCmd() *cobra.Command {
	var f entryFlags
	var audioPath string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create and save a new entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			entry := svc.NewEntry()
			if err := f.apply(cmd, &entry); err != nil {
				return err
			}
			if f.profile != "" {
				if err := svc.ApplyProfile(&entry, f.profile); err != nil {
					return err
				}
			}
			blob, err := readAudio(audioPath)
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout()
			defer cancel()

			saved, err := svc.SaveEntry(ctx, entry, blob)
			if err != nil {
				fmt.Printf("\n❌ Failed to save entry: %v\n", err)
				return err
			}

			fmt.Println("\n✅ Saved new entry!")
			printEntry(*saved)
			return nil
		},
	}

	f.bind(cmd)
	cmd.Flags().StringVar(&audioPath, "audio", "", "audio file to attach")
	return cmd
}

func saveCmd() *cobra.Command {
	var f entryFlags
	var audioPath string

	cmd := &cobra.Command{
		Use:   "save <entry.json | id>",
		Short: "Save an entry from a JSON file, or update a stored entry",
		Long: `Save reads an entry from a JSON file. When the argument is not a file
it is taken as the id of a stored entry, which is loaded and updated with
the given flags. Without --audio the stored audio is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := withTimeout()
			defer cancel()

			var entry models.Entry
			if data, err := os.ReadFile(args[0]); err == nil {
				if err := json.Unmarshal(data, &entry); err != nil {
					return fmt.Errorf("failed to parse %s: %w", args[0], err)
				}
			} else if os.IsNotExist(err) {
				stored, _, err := svc.LoadEntry(ctx, args[0])
				if err != nil {
					fmt.Printf("❌ Entry not found: %s\n", args[0])
					return err
				}
				entry = *stored
			} else {
				return err
			}

			if err := f.apply(cmd, &entry); err != nil {
				return err
			}
			if f.profile != "" {
				if err := svc.ApplyProfile(&entry, f.profile); err != nil {
					return err
				}
			}
			blob, err := readAudio(audioPath)
			if err != nil {
				return err
			}

			saved, err := svc.SaveEntry(ctx, entry, blob)
			if err != nil {
				fmt.Printf("\n❌ Failed to save entry: %v\n", err)
				return err
			}

			fmt.Println("\n✅ Saved entry!")
			printEntry(*saved)
			return nil
		},
	}

	f.bind(cmd)
	cmd.Flags().StringVar(&audioPath, "audio", "", "audio file to attach, replacing the stored one")
	return cmd
}

func getCmd() *cobra.Command {
	var audioOut string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a stored entry as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := withTimeout()
			defer cancel()

			entry, blob, err := svc.LoadEntry(ctx, args[0])
			if err != nil {
				fmt.Printf("❌ Entry not found: %s\n", args[0])
				return err
			}

			if audioOut != "" {
				if blob == nil {
					fmt.Println("📭 Entry has no audio")
				} else {
					if err := utils.WriteFileAtomic(audioOut, blob.Data); err != nil {
						return err
					}
					logger.Infof("Wrote %d bytes of audio to %s", len(blob.Data), audioOut)
				}
			}
			return printJSON(entry)
		},
	}

	cmd.Flags().StringVar(&audioOut, "audio-out", "", "write the entry's audio to this file")
	return cmd
}

func printEntries(entries []models.Entry) {
	for i, e := range entries {
		fmt.Printf("%d. %s  %s  %s\n", i+1, e.ID, e.RecordedOn, e.Language.Name)
		if e.Genre != "" || e.Speaker != "" {
			fmt.Printf("   %s %s\n", e.Genre, e.Speaker)
		}
		if e.Audio.Present {
			fmt.Printf("   🎙  %s\n", e.Audio.MimeType)
		}
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored entries, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := withTimeout()
			defer cancel()

			entries, err := svc.ListEntries(ctx)
			if err != nil {
				fmt.Printf("❌ Failed to list entries: %v\n", err)
				return err
			}
			if len(entries) == 0 {
				fmt.Println("\n📭 No entries in database")
				return nil
			}

			fmt.Printf("\n📚 Found %d entr(ies):\n\n", len(entries))
			printEntries(entries)
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find entries by id, language, speaker, collector, genre or transcript",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := withTimeout()
			defer cancel()

			query := strings.Join(args, " ")
			entries, err := svc.SearchEntries(ctx, query)
			if err != nil {
				fmt.Printf("❌ Search failed: %v\n", err)
				return err
			}
			if len(entries) == 0 {
				fmt.Printf("\n🔍 No entries match %q\n", query)
				return nil
			}

			fmt.Printf("\n🔍 %d entr(ies) match %q:\n\n", len(entries), query)
			printEntries(entries)
			return nil
		},
	}
}

func deleteCmd() *cobra.Command {
	var audioOnly bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry and its audio",
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

			if audioOnly {
				if err := svc.RemoveAudio(ctx, entry.ID); err != nil {
					fmt.Printf("❌ Failed to remove audio: %v\n", err)
					return err
				}
				fmt.Printf("\n✅ Removed audio of %s\n", entry.ID)
				return nil
			}

			if err := svc.DeleteEntry(ctx, entry.ID); err != nil {
				fmt.Printf("❌ Failed to delete entry: %v\n", err)
				return err
			}
			fmt.Println("\n✅ Successfully deleted entry:")
			printEntry(*entry)
			return nil
		},
	}

	cmd.Flags().BoolVar(&audioOnly, "audio-only", false, "remove only the audio and keep the entry")
	return cmd
}
