// Package download drives the whole pipeline: it resolves tracks from
// the source, expands output paths, feeds audio through the transcoder,
// and records results.
//
// # Manager
//
// The Manager coordinates the entire run:
//
//  1. Resolve the requested track, album, or playlist into tracks
//  2. Enqueue every track with a stable queue position
//  3. Expand and sanitize output paths per track
//  4. Skip tracks whose output exists or that the archive records
//  5. Stream audio through the transcoder, bounded by the worker limit
//  6. Tag MP3 outputs and save external cover art when requested
//  7. Render an optional playlist of completed outputs
//
// # Basic Usage
//
//	mgr, err := download.NewManager(download.Options{
//	    Config: cfg,
//	    Source: src,
//	    OnProgress: func(event download.ProgressEvent) {
//	        fmt.Println(event.Message)
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	if err := mgr.Initialize(ctx, model.ResourceAlbum, id); err != nil {
//	    return err
//	}
//	mgr.Run(ctx)
//	summary := mgr.Summarize()
//
// Per-track failures never abort the run; they land on the individual
// jobs and show up in the summary.
package download
