package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ffgrab/internal/archive"
	"ffgrab/internal/config"
	"ffgrab/internal/download"
	"ffgrab/internal/logging"
	"ffgrab/internal/model"
	"ffgrab/internal/playlist"
	"ffgrab/internal/source/httpsource"
	"ffgrab/internal/transcode"
)

type rootFlags struct {
	output        string
	profile       string
	configPath    string
	archivePath   string
	workers       int
	timeout       int
	verbose       bool
	skipExisting  bool
	externalCover string
	makePlaylist  bool
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "ffgrab <track|album|playlist>/<id>",
		Short: "Download tracks through an external transcoder",
		Long: `ffgrab resolves a track, album, or playlist from the configured
source and pipes each track's audio through the transcoder, expanding
the output path template per track.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags, args[0])
		},
	}

	rootCmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output path template (overrides config)")
	rootCmd.Flags().StringVarP(&flags.profile, "profile", "e", "", "Encoding profile name (default from config)")
	rootCmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "Configuration file path")
	rootCmd.Flags().StringVar(&flags.archivePath, "archive", "", "Archive database path; tracks recorded there are skipped")
	rootCmd.Flags().IntVar(&flags.workers, "workers", 0, "Parallel transcode jobs (overrides config)")
	rootCmd.Flags().IntVar(&flags.timeout, "timeout", 0, "Per-track transcode timeout in seconds (overrides config)")
	rootCmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.Flags().BoolVarP(&flags.skipExisting, "skip-existing", "s", false, "Skip tracks whose output file already exists")
	rootCmd.Flags().StringVar(&flags.externalCover, "external-cover-art", "", "Save the cover image under this name in each output directory")
	rootCmd.Flags().Lookup("external-cover-art").NoOptDefVal = "cover.jpg"
	rootCmd.Flags().BoolVar(&flags.makePlaylist, "playlist", false, "Write an M3U playlist of completed tracks")

	return rootCmd
}

func run(parent context.Context, flags *rootFlags, ref string) error {
	logger, flush, err := logging.New(logging.Options{Verbose: flags.verbose})
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer flush()

	cfg, created, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if created {
		path, _ := config.DefaultPath()
		fmt.Printf("Wrote a sample configuration to %s\nEdit it (credentials, output template) and run ffgrab again.\n", path)
		return nil
	}

	applyFlagOverrides(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := transcode.Healthcheck(cfg.FFPath); err != nil {
		return fmt.Errorf("transcoder unavailable: %w", err)
	}

	kind, id, err := model.ParseResource(ref)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := download.Options{
		Config:           cfg,
		Source:           httpsource.New(cfg.SourceURL, cfg.Username, cfg.Password),
		Profile:          flags.profile,
		OutputTemplate:   flags.output,
		SkipExisting:     flags.skipExisting,
		ExternalCoverArt: flags.externalCover,
		Logger:           logger,
	}
	if flags.makePlaylist {
		opts.Playlist = playlist.NewWriter(playlist.FormatM3U, true, cfg.ArtistsSeparator)
	}
	if flags.archivePath != "" {
		ledger, err := archive.Open(flags.archivePath)
		if err != nil {
			return err
		}
		defer ledger.Close()
		opts.Archive = ledger
	}

	manager, err := download.NewManager(opts)
	if err != nil {
		return err
	}

	if err := manager.Initialize(ctx, kind, id); err != nil {
		return err
	}
	manager.Run(ctx)

	if ctx.Err() != nil {
		logger.Warn("run cancelled", zap.Error(ctx.Err()))
	}

	summary := manager.Summarize()
	fmt.Println()
	fmt.Print(renderSummary(os.Stdout, manager))

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d tracks failed", summary.Failed, len(manager.Jobs()))
	}
	return nil
}

func applyFlagOverrides(cfg *config.Config, flags *rootFlags) {
	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}
	if flags.timeout > 0 {
		cfg.TranscodeTimeout = flags.timeout
	}
}
