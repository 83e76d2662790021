package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-charlieplex/internal/gallery"
	"github.com/coreman2200/funtimes-charlieplex/matrix"
)

func newCaptureCmd() *cobra.Command {
	var (
		text      string
		scroll    string
		animation string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Record scrolling text or a gallery animation as raw frame data",
		Long: `Writes frames back to back, 96 brightness bytes each in LED order.
The output can be played with "run --frames".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var frames []matrix.Frame
			switch {
			case text != "":
				dir, ok := matrix.ParseScroll(scroll)
				if !ok {
					return fmt.Errorf("unknown scroll direction %q", scroll)
				}
				frames = textFrames(text, dir)
			case animation != "":
				var ok bool
				if frames, ok = gallery.Get(animation); !ok {
					return fmt.Errorf("unknown animation %q (have %v)", animation, gallery.Names())
				}
			default:
				return fmt.Errorf("one of --text or --animation is required")
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			for _, fr := range frames {
				if _, err := w.Write(fr[:]); err != nil {
					return err
				}
			}
			log.Info().Int("frames", len(frames)).Str("output", output).Msg("captured")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&text, "text", "", "message to scroll")
	f.StringVar(&scroll, "scroll", "left", "scroll direction: none | left | right | up | down")
	f.StringVar(&animation, "animation", "", "gallery animation to dump")
	f.StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}
