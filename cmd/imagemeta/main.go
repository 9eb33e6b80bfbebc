package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/kovidgoyal/imagemeta"
	"github.com/kovidgoyal/imagemeta/types"
)

var _ = fmt.Print

type output struct {
	Path     string               `json:"path"`
	Metadata *imagemeta.ImageMeta `json:"metadata,omitempty"`
	Error    string               `json:"error,omitempty"`
}

func debug_logger(stderr io.Writer) *log.Logger {
	if strings.EqualFold(os.Getenv("IMAGEMETA_LOG_LEVEL"), "debug") {
		return log.New(stderr, "imagemeta: ", log.Ltime|log.Lmicroseconds)
	}
	return log.New(io.Discard, "", 0)
}

// run returns the number of files that could not be read
func run(args []string, stdout, stderr io.Writer) (num_failed int, err error) {
	fl := flag.NewFlagSet("imagemeta", flag.ContinueOnError)
	fl.SetOutput(stderr)
	as_json := fl.Bool("json", false, "Print the metadata as JSON, one object per line")
	no_frames := fl.Bool("no-frames", false, "Do not count animation frames, reading only the image headers")
	fl.Usage = func() {
		fmt.Fprintln(stderr, "usage: imagemeta [-json] [-no-frames] image-file ...")
		fl.PrintDefaults()
	}
	if err = fl.Parse(args); err != nil {
		return
	}
	if fl.NArg() == 0 {
		fl.Usage()
		return 0, fmt.Errorf("no image files specified")
	}
	dbg := debug_logger(stderr)
	dbg.Printf("imagemeta %s reading %d files", imagemeta.Version, fl.NArg())
	var opts []imagemeta.Option
	if *no_frames {
		opts = append(opts, imagemeta.CountFrames(false))
	}
	enc := json.NewEncoder(stdout)
	for _, r := range imagemeta.LoadFiles(fl.Args(), opts...) {
		if r.Err != nil {
			num_failed++
			dbg.Printf("%s: failed, retryable: %v", r.Path, imagemeta.IsRetryable(r.Err))
			if *as_json {
				if err = enc.Encode(output{Path: r.Path, Error: r.Err.Error()}); err != nil {
					return
				}
			} else {
				fmt.Fprintf(stderr, "%s: %s\n", r.Path, r.Err)
			}
			continue
		}
		if ext_format, eerr := types.FormatFromFilename(r.Path); eerr == nil && ext_format != r.Metadata.Format {
			fmt.Fprintf(stderr, "%s: warning: extension suggests %s but the file contains %s data\n", r.Path, ext_format, r.Metadata.Format)
		}
		if *as_json {
			md := r.Metadata
			if err = enc.Encode(output{Path: r.Path, Metadata: &md}); err != nil {
				return
			}
		} else {
			fmt.Fprintf(stdout, "%s: %s\n", r.Path, r.Metadata)
		}
	}
	return
}

func main() {
	num_failed, err := run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}
	if num_failed > 0 {
		os.Exit(1)
	}
}
