package transcode

import (
	"reflect"
	"testing"

	"ffgrab/internal/wildcard"
)

func compileAll(args []string) []wildcard.Template {
	templates := make([]wildcard.Template, len(args))
	for i, a := range args {
		templates[i] = wildcard.Compile(a)
	}
	return templates
}

var preamble = []string{"-y", "-hide_banner", "-loglevel", "error", "-i", "-"}

func TestBuildArgs_Basic(t *testing.T) {
	got := BuildArgs(BuildInput{
		ArgTemplates: compileAll([]string{"-c:a", "copy"}),
		OutputPath:   "/music/out.ogg",
	})

	want := append(append([]string{}, preamble...), "-c:a", "copy", "/music/out.ogg")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildArgs() = %v, want %v", got, want)
	}
}

func TestBuildArgs_ExpandsEachArgumentAsWholeUnit(t *testing.T) {
	fields := wildcard.Fields{
		Artists:   []string{"A", "B"},
		Separator: ", ",
		Title:     "Song One",
	}
	got := BuildArgs(BuildInput{
		ArgTemplates: compileAll([]string{"-metadata", "title=%t", "-metadata", "artist=%a"}),
		Fields:       fields,
		OutputPath:   "out.mp3",
	})

	want := append(append([]string{}, preamble...),
		"-metadata", "title=Song One",
		"-metadata", "artist=A, B",
		"out.mp3",
	)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildArgs() = %v, want %v", got, want)
	}
}

func TestBuildArgs_CoverInput(t *testing.T) {
	got := BuildArgs(BuildInput{
		ArgTemplates: compileAll([]string{"-map", "0:0", "-map", "1:0", "-c:v", "copy"}),
		CoverPath:    "/tmp/cover.jpg",
		OutputPath:   "out.mp3",
	})

	want := append(append([]string{}, preamble...),
		"-i", "/tmp/cover.jpg",
		"-map", "0:0",
		"-map", "1:0",
		"-c:v", "copy",
		"out.mp3",
	)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildArgs() = %v, want %v", got, want)
	}
}

func TestBuildArgs_MissingCoverDropsSecondInputMaps(t *testing.T) {
	got := BuildArgs(BuildInput{
		ArgTemplates: compileAll([]string{"-map", "0:0", "-map", "1:0", "-c:a", "libmp3lame"}),
		OutputPath:   "out.mp3",
	})

	want := append(append([]string{}, preamble...),
		"-map", "0:0",
		"-c:a", "libmp3lame",
		"out.mp3",
	)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildArgs() = %v, want %v", got, want)
	}

	for _, arg := range got {
		if refersToSecondInput(arg) {
			t.Errorf("argument %q references the absent second input", arg)
		}
	}
}

func TestBuildArgs_OutputPathLast(t *testing.T) {
	got := BuildArgs(BuildInput{
		ArgTemplates: compileAll([]string{"-c:a", "flac"}),
		OutputPath:   "/music/final.flac",
	})
	if got[len(got)-1] != "/music/final.flac" {
		t.Errorf("last argument = %q, want output path", got[len(got)-1])
	}
}

func TestRefersToSecondInput(t *testing.T) {
	tests := []struct {
		spec string
		want bool
	}{
		{"1", true},
		{"1:0", true},
		{"1:v", true},
		{"0:0", false},
		{"0:1", false},
		{"10", false},
		{"-c:a", false},
	}
	for _, tt := range tests {
		if got := refersToSecondInput(tt.spec); got != tt.want {
			t.Errorf("refersToSecondInput(%q) = %v, want %v", tt.spec, got, tt.want)
		}
	}
}
