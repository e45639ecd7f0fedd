package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/igolaizola/gengallery/pkg/cmd/assist"
	"github.com/igolaizola/gengallery/pkg/cmd/image"
	"github.com/igolaizola/gengallery/pkg/cmd/serve"
	"github.com/igolaizola/gengallery/pkg/cmd/video"
	"github.com/igolaizola/gengallery/pkg/effect"
	"github.com/igolaizola/gengallery/pkg/provider"
	"github.com/igolaizola/gengallery/pkg/studio"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/peterbourgon/ff/v3/ffyaml"
)

const envPrefix = "GENGALLERY"

func NewCommand(version, commit, date string) *ffcli.Command {
	fs := flag.NewFlagSet("gengallery", flag.ExitOnError)

	return &ffcli.Command{
		ShortUsage: "gengallery [flags] <subcommand>",
		FlagSet:    fs,
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
		Subcommands: []*ffcli.Command{
			newVersionCommand(version, commit, date),
			newServeCommand(),
			newVideoCommand(),
			newImageCommand(),
			newAssistCommand(),
			newEffectsCommand(),
		},
	}
}

func newVersionCommand(version, commit, date string) *ffcli.Command {
	return &ffcli.Command{
		Name:       "version",
		ShortUsage: "gengallery version",
		ShortHelp:  "print version",
		Exec: func(ctx context.Context, args []string) error {
			v := version
			if v == "" {
				if buildInfo, ok := debug.ReadBuildInfo(); ok {
					v = buildInfo.Main.Version
				}
			}
			if v == "" {
				v = "dev"
			}
			versionFields := []string{v}
			if commit != "" {
				versionFields = append(versionFields, commit)
			}
			if date != "" {
				versionFields = append(versionFields, date)
			}
			fmt.Println(strings.Join(versionFields, " "))
			return nil
		},
	}
}

// providerFlags registers the flags shared by every command that talks to
// the generation service.
func providerFlags(fs *flag.FlagSet, cfg *provider.Config) {
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.DurationVar(&cfg.Wait, "wait", provider.DefaultWait, "wait time between operation status checks")
	fs.DurationVar(&cfg.Timeout, "timeout", 2*time.Minute, "timeout for media downloads")
	fs.StringVar(&cfg.Proxy, "proxy", "", "proxy for media downloads (optional)")
	fs.StringVar(&cfg.APIKey, "api-key", "", "gemini api key")
	fs.StringVar(&cfg.VideoModel, "video-model", provider.DefaultVideoModel, "video model, empty to disable video generation")
	fs.StringVar(&cfg.ImageModel, "image-model", provider.DefaultImageModel, "image model, empty to disable image generation")
	fs.StringVar(&cfg.TextModel, "text-model", provider.DefaultTextModel, "text model, empty to disable prompt assistance")
}

func options(fs *flag.FlagSet) []ff.Option {
	return []ff.Option{
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ffyaml.Parser),
		ff.WithEnvVarPrefix(envPrefix),
		withEmptyEnv(fs, "video-model", "image-model", "text-model"),
	}
}

// withEmptyEnv applies environment variables that are set to an empty value,
// which ff ignores. Command line flags are parsed afterwards and still win.
func withEmptyEnv(fs *flag.FlagSet, names ...string) ff.Option {
	return func(*ff.Context) {
		for _, name := range names {
			if fs.Lookup(name) == nil {
				continue
			}
			key := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
			if v, ok := os.LookupEnv(key); ok && v == "" {
				_ = fs.Set(name, "")
			}
		}
	}
}

func newServeCommand() *ffcli.Command {
	cmd := "serve"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	var cfg serve.Config
	providerFlags(fs, &cfg.Provider)
	fs.StringVar(&cfg.Addr, "addr", "localhost:8080", "listen address")
	fs.StringVar(&cfg.FFmpeg, "ffmpeg", "ffmpeg", "ffmpeg binary used to extract video frames")
	fs.StringVar(&cfg.Prefs, "prefs", "gengallery.db", "preferences database, empty to keep them in memory")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("gengallery %s [flags]", cmd),
		Options:    options(fs),
		ShortHelp:  "serve the gallery web page",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return serve.Run(ctx, &cfg)
		},
	}
}

type stringsFlag []string

func (s *stringsFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringsFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func newVideoCommand() *ffcli.Command {
	cmd := "video"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	var cfg video.Config
	providerFlags(fs, &cfg.Provider)
	fs.StringVar(&cfg.FFmpeg, "ffmpeg", "ffmpeg", "ffmpeg binary used to extract video frames")

	var images stringsFlag
	fs.StringVar(&cfg.Prompt, "prompt", "", "text prompt")
	fs.StringVar(&cfg.PromptFile, "prompt-file", "", "text file with the prompt (optional)")
	fs.Var(&images, "image", "source image, can be repeated")
	fs.StringVar(&cfg.Video, "video", "", "source video, its first frame is used (optional)")
	fs.StringVar(&cfg.Effect, "effect", effect.None, "style effect")
	fs.StringVar(&cfg.AspectRatio, "aspect-ratio", studio.DefaultAspectRatio, "aspect ratio")
	fs.IntVar(&cfg.Duration, "duration", studio.DefaultDuration, "approximate duration in seconds")
	fs.StringVar(&cfg.Output, "output", "", "output file (optional, if omitted it won't be saved)")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("gengallery %s [flags]", cmd),
		Options:    options(fs),
		ShortHelp:  "generate a video",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			cfg.Images = images
			return video.Run(ctx, &cfg)
		},
	}
}

func newImageCommand() *ffcli.Command {
	cmd := "image"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	var cfg image.Config
	providerFlags(fs, &cfg.Provider)
	fs.StringVar(&cfg.Prompt, "prompt", "", "text prompt")
	fs.StringVar(&cfg.PromptFile, "prompt-file", "", "text file with the prompt (optional)")
	fs.StringVar(&cfg.Effect, "effect", effect.None, "style effect")
	fs.StringVar(&cfg.AspectRatio, "aspect-ratio", studio.DefaultAspectRatio, "aspect ratio")
	fs.IntVar(&cfg.N, "n", 1, "number of images")
	fs.StringVar(&cfg.Output, "output", "", "output directory (optional, if omitted they won't be saved)")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("gengallery %s [flags]", cmd),
		Options:    options(fs),
		ShortHelp:  "generate images",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return image.Run(ctx, &cfg)
		},
	}
}

func newAssistCommand() *ffcli.Command {
	cmd := "assist"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	var cfg assist.Config
	providerFlags(fs, &cfg.Provider)
	fs.StringVar(&cfg.Prompt, "prompt", "", "keywords to expand")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("gengallery %s [flags]", cmd),
		Options:    options(fs),
		ShortHelp:  "expand keywords into a detailed prompt",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return assist.Run(ctx, &cfg)
		},
	}
}

func newEffectsCommand() *ffcli.Command {
	return &ffcli.Command{
		Name:       "effects",
		ShortUsage: "gengallery effects",
		ShortHelp:  "list style effects",
		Exec: func(ctx context.Context, args []string) error {
			for _, e := range effect.All() {
				fmt.Printf("%-16s%s\n", e.Name, e.Suffix)
			}
			return nil
		},
	}
}
