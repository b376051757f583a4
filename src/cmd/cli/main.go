package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quickcap/src/capture"
	"quickcap/src/clipboard"
	"quickcap/src/geometry"
)

type cliOptions struct {
	rectSpec    string
	x           int
	y           int
	width       int
	height      int
	outPath     string
	toClipboard bool
	jsonOutput  bool
	verbose     bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"quickcap-shot"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "quickcap-shot",
		Short:         "Capture a screen rectangle to a PNG file or the clipboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts)
		},
	}

	cmd.Flags().StringVar(&opts.rectSpec, "rect", "", `Rectangle as "X,Y,WxH" (overrides the individual flags)`)
	cmd.Flags().IntVar(&opts.x, "x", 0, "Left edge in screen coordinates")
	cmd.Flags().IntVar(&opts.y, "y", 0, "Top edge in screen coordinates")
	cmd.Flags().IntVar(&opts.width, "width", 0, "Width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 0, "Height in pixels")
	cmd.Flags().StringVar(&opts.outPath, "out", "", "Output PNG path (use '-' for stdout)")
	cmd.Flags().BoolVar(&opts.toClipboard, "clipboard", false, "Copy the capture to the clipboard instead of a file")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print capture metadata as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")

	return cmd
}

func runWithOptions(opts cliOptions) error {
	// Configure logging BEFORE any other operations.
	if !opts.verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stderr)
		fmt.Fprintf(os.Stderr, "[verbose] Starting capture tool\n")
	}

	rect, err := resolveRect(opts)
	if err != nil {
		return err
	}
	if !opts.toClipboard && opts.outPath == "" {
		return fmt.Errorf("either --out or --clipboard is required")
	}

	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Capturing %+v\n", rect)
	}

	img, err := capture.Grab(rect)
	if err != nil {
		return fmt.Errorf("capture failed: %w", err)
	}
	data := img.PNG()

	var destination string
	switch {
	case opts.toClipboard:
		destination = "clipboard"
		if err := copyToClipboard(data, opts.verbose); err != nil {
			return err
		}
	case opts.outPath == "-":
		destination = "stdout"
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("failed to write PNG to stdout: %w", err)
		}
	default:
		destination = opts.outPath
		if err := os.WriteFile(opts.outPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.outPath, err)
		}
	}

	if opts.jsonOutput {
		return printJSON(rect, len(data), destination)
	}
	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Wrote %d bytes to %s\n", len(data), destination)
	}
	return nil
}

func copyToClipboard(png []byte, verbose bool) error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	lost, err := clipboard.Publish(clipboard.ImageContent{PNG: png})
	if err != nil {
		return fmt.Errorf("clipboard write failed: %w", err)
	}
	// Give clipboard managers a moment to take a copy before the process
	// exits and the selection goes away.
	select {
	case <-lost:
	case <-time.After(2 * time.Second):
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Image placed on clipboard\n")
	}
	return nil
}

func printJSON(rect geometry.Rect, size int, destination string) error {
	out := struct {
		X           int    `json:"x"`
		Y           int    `json:"y"`
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		PNGBytes    int    `json:"png_bytes"`
		Destination string `json:"destination"`
	}{rect.X, rect.Y, rect.Width, rect.Height, size, destination}

	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(out)
}

// resolveRect builds the capture rectangle from --rect, falling back to the
// individual coordinate flags.
func resolveRect(opts cliOptions) (geometry.Rect, error) {
	if opts.rectSpec != "" {
		return parseRectSpec(opts.rectSpec)
	}
	if opts.width < 1 || opts.height < 1 {
		return geometry.Rect{}, fmt.Errorf("width and height must be at least 1 (got %dx%d)", opts.width, opts.height)
	}
	return geometry.Rect{X: opts.x, Y: opts.y, Width: opts.width, Height: opts.height}, nil
}

// parseRectSpec parses "X,Y,WxH", e.g. "100,50,200x50".
func parseRectSpec(s string) (geometry.Rect, error) {
	var r geometry.Rect
	n, err := fmt.Sscanf(strings.TrimSpace(s), "%d,%d,%dx%d", &r.X, &r.Y, &r.Width, &r.Height)
	if err != nil || n != 4 {
		return geometry.Rect{}, fmt.Errorf("invalid rect %q, expected X,Y,WxH", s)
	}
	if r.Width < 1 || r.Height < 1 {
		return geometry.Rect{}, fmt.Errorf("invalid rect %q: width and height must be at least 1", s)
	}
	return r, nil
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	singleDash := []string{"rect", "x", "y", "width", "height", "out", "clipboard", "json", "verbose"}
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range singleDash {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "--" + arg[1:]
			}
		}
	}

	return normalized
}
