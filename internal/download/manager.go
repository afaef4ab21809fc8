package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"ffgrab/internal/archive"
	"ffgrab/internal/artwork"
	"ffgrab/internal/config"
	"ffgrab/internal/model"
	"ffgrab/internal/naming"
	"ffgrab/internal/playlist"
	"ffgrab/internal/queue"
	"ffgrab/internal/source"
	"ffgrab/internal/tag"
	"ffgrab/internal/transcode"
	"ffgrab/internal/wildcard"
)

// ProgressLevel indicates the severity of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent is a human-readable pipeline update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

const (
	fetchRetries        = 3
	retryExponent       = 2.0
	defaultPlaylistStem = "playlist"
)

// Options configures a Manager.
type Options struct {
	Config *config.Config
	Source source.Source

	// Profile selects the encoding profile; empty means the config's
	// default.
	Profile string

	// OutputTemplate overrides the config's output template when set.
	OutputTemplate string

	// SkipExisting short-circuits jobs whose output file already
	// exists instead of overwriting it.
	SkipExisting bool

	// ExternalCoverArt, when non-empty, names a cover image written
	// next to each output, once per directory and only if absent.
	ExternalCoverArt string

	// Playlist, when non-nil, renders a playlist of completed outputs
	// after the run.
	Playlist *playlist.Writer

	// Archive, when non-nil, skips tracks already recorded there and
	// records new completions.
	Archive *archive.Ledger

	Logger     *zap.Logger
	OnProgress func(ProgressEvent)
}

// Manager coordinates track downloads through the transcode pipeline.
type Manager struct {
	cfg         *config.Config
	src         source.Source
	profile     config.Profile
	profileName string

	resolver     *naming.Resolver
	orchestrator *transcode.Orchestrator
	coord        *queue.Coordinator
	tagger       *tag.Tagger
	ledger       *archive.Ledger
	playlist     *playlist.Writer

	argTemplates []wildcard.Template
	seqDigits    int
	skipExisting bool
	coverName    string

	retries   int
	retryWait time.Duration

	coverMu    sync.Mutex
	coverCache map[string][]byte
	coverDirs  map[string]bool

	logger     *zap.Logger
	onProgress func(ProgressEvent)
}

// NewManager builds a Manager from validated configuration. It fails
// when the requested profile does not resolve.
func NewManager(opts Options) (*Manager, error) {
	cfg := opts.Config

	profile, err := cfg.ResolveProfile(opts.Profile)
	if err != nil {
		return nil, err
	}
	profileName := opts.Profile
	if profileName == "" {
		profileName = cfg.DefaultProfile
	}

	template := cfg.Output
	if opts.OutputTemplate != "" {
		template = opts.OutputTemplate
	}

	argTemplates := make([]wildcard.Template, len(profile.Args))
	for i, arg := range profile.Args {
		argTemplates[i] = wildcard.Compile(arg)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		cfg:         cfg,
		src:         opts.Source,
		profile:     profile,
		profileName: profileName,
		resolver:    naming.NewResolver(template, cfg.MaxFilenameLen),
		orchestrator: &transcode.Orchestrator{
			ExecPath: cfg.FFPath,
			Timeout:  time.Duration(cfg.TranscodeTimeout) * time.Second,
		},
		coord:        queue.New(cfg.Workers),
		tagger:       tag.NewTagger(cfg.ArtistsSeparator),
		ledger:       opts.Archive,
		playlist:     opts.Playlist,
		argTemplates: argTemplates,
		skipExisting: opts.SkipExisting,
		coverName:    opts.ExternalCoverArt,
		retries:      fetchRetries,
		retryWait:    time.Second,
		coverCache:   make(map[string][]byte),
		coverDirs:    make(map[string]bool),
		logger:       logger,
		onProgress:   opts.OnProgress,
	}, nil
}

// Notify forwards per-job status changes; used by the TUI.
func (m *Manager) Notify(fn func(*queue.Job)) {
	m.coord.Notify = fn
}

// Initialize resolves the requested resource into tracks and enqueues
// them in source order.
func (m *Manager) Initialize(ctx context.Context, kind model.ResourceKind, id string) error {
	var tracks []model.Track
	err := m.withRetry(ctx, fmt.Sprintf("resolve %s %s", kind, id), func() error {
		var fetchErr error
		tracks, fetchErr = m.src.Resolve(ctx, kind, id)
		return fetchErr
	})
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%s %s has no tracks", kind, id)
	}

	m.seqDigits = len(strconv.Itoa(len(tracks)))
	for _, track := range tracks {
		m.coord.Enqueue(track)
	}

	m.progress(ProgressEvent{
		Message: fmt.Sprintf("Queued %d tracks from %s %s (profile %s)", len(tracks), kind, id, m.profileName),
		Level:   LevelInfo,
	})
	return nil
}

// Run processes every queued track. It always drains the queue; per-job
// failures are recorded on the jobs, not returned.
func (m *Manager) Run(ctx context.Context) {
	m.coord.Run(ctx, m.resolveJob, m.executeJob)

	if m.playlist != nil {
		m.writePlaylist()
	}
}

// Jobs exposes all jobs for summary rendering.
func (m *Manager) Jobs() []*queue.Job {
	return m.coord.Jobs()
}

// Summary counts job outcomes after Run.
type Summary struct {
	Completed int
	Skipped   int
	Failed    int
}

// Summarize tallies the final job states.
func (m *Manager) Summarize() Summary {
	var s Summary
	for _, job := range m.coord.Jobs() {
		switch job.Status {
		case queue.StatusCompleted:
			s.Completed++
		case queue.StatusSkipped:
			s.Skipped++
		default:
			s.Failed++
		}
	}
	return s
}

func (m *Manager) resolveJob(ctx context.Context, job *queue.Job) error {
	fields := m.fieldsFor(job)
	path, err := m.resolver.Resolve(fields, m.profile.Extension)
	if err != nil {
		m.progress(ProgressEvent{
			Message: fmt.Sprintf("Cannot resolve path for %s: %v", job.Track.Title, err),
			Level:   LevelError,
		})
		return err
	}
	job.OutputPath = path

	if m.ledger != nil {
		archived, err := m.ledger.Contains(ctx, job.Track.ID)
		if err != nil {
			return err
		}
		if archived {
			m.progress(ProgressEvent{
				Message: fmt.Sprintf("Skipping %s: already in archive", job.Track.Title),
				Level:   LevelVerbose,
			})
			return queue.ErrSkip
		}
	}

	if m.skipExisting {
		if _, err := os.Stat(path); err == nil {
			m.progress(ProgressEvent{
				Message: fmt.Sprintf("Skipping existing: %s", filepath.Base(path)),
				Level:   LevelVerbose,
			})
			return queue.ErrSkip
		}
	}

	return nil
}

func (m *Manager) executeJob(ctx context.Context, job *queue.Job) error {
	dir := filepath.Dir(job.OutputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var cover []byte
	if m.profile.CoverArt || m.coverName != "" {
		cover = m.fetchCover(ctx, job)
	}

	var audio io.ReadCloser
	err := m.withRetry(ctx, "open audio for "+job.Track.Title, func() error {
		var openErr error
		audio, openErr = m.src.OpenAudio(ctx, job.Track, m.profile.Quality)
		return openErr
	})
	if err != nil {
		return err
	}
	defer audio.Close()

	in := transcode.BuildInput{
		ArgTemplates: m.argTemplates,
		Fields:       m.fieldsFor(job),
		OutputPath:   job.OutputPath,
	}
	var embedded []byte
	if m.profile.CoverArt {
		embedded = cover
	}
	if err := m.orchestrator.Run(ctx, in, audio, embedded); err != nil {
		m.progress(ProgressEvent{
			Message: fmt.Sprintf("Transcode failed for %s: %v", job.Track.Title, err),
			Level:   LevelError,
		})
		return err
	}

	if m.coverName != "" && cover != nil {
		m.writeExternalCover(dir, cover, job)
	}

	if m.profile.Extension == "mp3" {
		m.tagOutput(job, cover)
	}

	if m.ledger != nil {
		err := m.ledger.Record(ctx, archive.Entry{
			TrackID:    job.Track.ID,
			OutputPath: job.OutputPath,
			Quality:    m.profile.Quality,
		})
		if err != nil {
			job.Warn(fmt.Sprintf("archive record failed: %v", err))
			m.logger.Warn("archive record failed", zap.String("track", job.Track.ID), zap.Error(err))
		}
	}

	m.progress(ProgressEvent{
		Message: fmt.Sprintf("Downloaded: %s", filepath.Base(job.OutputPath)),
		Level:   LevelSuccess,
	})
	return nil
}

// fetchCover returns the track's cover art, or nil with a warning on
// the job when the profile wants art the track doesn't have or the
// fetch keeps failing. A missing cover never fails the job.
func (m *Manager) fetchCover(ctx context.Context, job *queue.Job) []byte {
	if !job.Track.HasCover() {
		job.Warn("cover art requested but track has none")
		m.progress(ProgressEvent{
			Message: fmt.Sprintf("No cover art available for %s", job.Track.Title),
			Level:   LevelWarning,
		})
		return nil
	}

	m.coverMu.Lock()
	cached, ok := m.coverCache[job.Track.CoverURL]
	m.coverMu.Unlock()
	if ok {
		return cached
	}

	var cover []byte
	err := m.withRetry(ctx, "fetch cover for "+job.Track.Title, func() error {
		var fetchErr error
		cover, fetchErr = m.src.CoverArt(ctx, job.Track)
		return fetchErr
	})
	if err != nil {
		job.Warn(fmt.Sprintf("cover art fetch failed: %v", err))
		m.progress(ProgressEvent{
			Message: fmt.Sprintf("Cover art fetch failed for %s: %v", job.Track.Title, err),
			Level:   LevelWarning,
		})
		return nil
	}

	m.coverMu.Lock()
	m.coverCache[job.Track.CoverURL] = cover
	m.coverMu.Unlock()
	return cover
}

// writeExternalCover saves the cover image beside the output, at most
// once per directory and never over an existing file. A directory is
// only recorded as done once a cover actually exists there, so a
// failed attempt is retried by the next job in that directory.
func (m *Manager) writeExternalCover(dir string, cover []byte, job *queue.Job) {
	m.coverMu.Lock()
	done := m.coverDirs[dir]
	m.coverMu.Unlock()
	if done {
		return
	}

	prepared, err := artwork.Prepare(cover, artwork.Options{ToJPEG: true})
	if err != nil {
		job.Warn(fmt.Sprintf("cover art conversion failed: %v", err))
		return
	}

	path := filepath.Join(dir, m.coverName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			m.markCoverDone(dir)
		} else {
			job.Warn(fmt.Sprintf("cover art save failed: %v", err))
		}
		return
	}
	if _, err := f.Write(prepared); err != nil {
		f.Close()
		os.Remove(path)
		job.Warn(fmt.Sprintf("cover art save failed: %v", err))
		return
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		job.Warn(fmt.Sprintf("cover art save failed: %v", err))
		return
	}
	m.markCoverDone(dir)
}

func (m *Manager) markCoverDone(dir string) {
	m.coverMu.Lock()
	m.coverDirs[dir] = true
	m.coverMu.Unlock()
}

func (m *Manager) tagOutput(job *queue.Job, cover []byte) {
	var prepared []byte
	if cover != nil {
		var err error
		prepared, err = artwork.Prepare(cover, artwork.Options{ToJPEG: true})
		if err != nil {
			prepared = nil
		}
	}
	if err := m.tagger.SaveTags(job.OutputPath, job.Track, prepared); err != nil {
		job.Warn(fmt.Sprintf("tagging failed: %v", err))
		m.progress(ProgressEvent{
			Message: fmt.Sprintf("Error tagging %s: %v", job.Track.Title, err),
			Level:   LevelWarning,
		})
	}
}

func (m *Manager) writePlaylist() {
	var items []playlist.Item
	var dir string
	for _, job := range m.coord.Jobs() {
		if job.Status != queue.StatusCompleted {
			continue
		}
		if dir == "" {
			dir = filepath.Dir(job.OutputPath)
		}
		items = append(items, playlist.Item{Path: job.OutputPath, Track: job.Track})
	}
	if len(items) == 0 {
		return
	}

	stem := defaultPlaylistStem
	if album := items[0].Track.Album; album != "" {
		stem = naming.SanitizeSegment(album)
	}
	path := filepath.Join(dir, stem+"."+m.playlist.Ext())
	content := m.playlist.Render(dir, items)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		m.progress(ProgressEvent{
			Message: fmt.Sprintf("Error creating playlist: %v", err),
			Level:   LevelWarning,
		})
		return
	}
	m.progress(ProgressEvent{
		Message: fmt.Sprintf("Created playlist: %s", filepath.Base(path)),
		Level:   LevelSuccess,
	})
}

// fieldsFor returns the raw metadata fields for a job. Path expansion
// sanitizes its own copy inside Resolver.Resolve; argv expansion gets
// the metadata untouched so frames like -metadata title=%t carry the
// real title.
func (m *Manager) fieldsFor(job *queue.Job) wildcard.Fields {
	return wildcard.FieldsFromTrack(job.Track, m.cfg.ArtistsSeparator, job.Position, m.seqDigits)
}

// withRetry runs fn up to m.retries times with exponential backoff.
func (m *Manager) withRetry(ctx context.Context, what string, fn func() error) error {
	var err error
	for tries := 0; tries < m.retries; tries++ {
		if err = fn(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if tries < m.retries-1 {
			m.progress(ProgressEvent{
				Message: fmt.Sprintf("Retry %d/%d: %s: %v", tries+1, m.retries-1, what, err),
				Level:   LevelWarning,
			})
			m.waitForRetry(ctx, tries)
		}
	}
	return err
}

func (m *Manager) waitForRetry(ctx context.Context, tries int) {
	cooldown := time.Duration(float64(m.retryWait) * math.Pow(retryExponent, float64(tries)))
	select {
	case <-ctx.Done():
	case <-time.After(cooldown):
	}
}

func (m *Manager) progress(event ProgressEvent) {
	switch event.Level {
	case LevelError:
		m.logger.Error(event.Message)
	case LevelWarning:
		m.logger.Warn(event.Message)
	case LevelVerbose:
		m.logger.Debug(event.Message)
	default:
		m.logger.Info(event.Message)
	}
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
