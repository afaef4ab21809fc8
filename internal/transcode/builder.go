// Package transcode builds transcoder argument lists and supervises the
// external transcoder process for one job at a time.
package transcode

import (
	"strings"

	"ffgrab/internal/wildcard"
)

// BuildInput carries everything needed to compute a transcoder argv.
type BuildInput struct {
	// ArgTemplates are the profile's argument templates, each expanded
	// as a whole unit; no substitution ever spans two arguments.
	ArgTemplates []wildcard.Template

	Fields wildcard.Fields

	// CoverPath is the seekable cover image supplied as the second
	// input, or "" when no cover is fed to the transcoder.
	CoverPath string

	// OutputPath is appended verbatim as the final argument.
	OutputPath string
}

// BuildArgs computes the transcoder argument list (without the
// executable itself).
//
// Input 0 is always the audio stream on stdin. When CoverPath is set it
// becomes input 1, so profile-authored stream-mapping arguments keep
// their input-index assumptions. Without a cover, any "-map" pair that
// references input 1 is dropped entirely so the command stays valid.
func BuildArgs(in BuildInput) []string {
	args := make([]string, 0, len(in.ArgTemplates)+10)
	args = append(args,
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", "-",
	)
	if in.CoverPath != "" {
		args = append(args, "-i", in.CoverPath)
	}

	expanded := make([]string, len(in.ArgTemplates))
	for i, tmpl := range in.ArgTemplates {
		expanded[i] = tmpl.Expand(in.Fields)
	}

	for i := 0; i < len(expanded); i++ {
		if in.CoverPath == "" && expanded[i] == "-map" && i+1 < len(expanded) && refersToSecondInput(expanded[i+1]) {
			i++
			continue
		}
		args = append(args, expanded[i])
	}

	return append(args, in.OutputPath)
}

// refersToSecondInput reports whether a stream specifier addresses the
// cover input (input index 1).
func refersToSecondInput(spec string) bool {
	return spec == "1" || strings.HasPrefix(spec, "1:")
}
