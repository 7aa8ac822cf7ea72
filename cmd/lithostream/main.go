// lithostream converts grayscale images into 3D-printable lithophane
// panels, written as binary STL files.
//
// Dark pixels map to thick (light-blocking) relief and light pixels to
// thin (light-transmitting) relief, so the panel reproduces the image
// when backlit.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/AtaCanYmc/LithoStream/imgutil"
	"github.com/AtaCanYmc/LithoStream/litho"
	"github.com/AtaCanYmc/LithoStream/stl"
)

var (
	minThick    = flag.Float64("min", 0.5, "Minimum thickness in mm (white areas)")
	maxThick    = flag.Float64("max", 3.0, "Maximum thickness in mm (black areas)")
	frame       = flag.Float64("frame", 1.0, "Frame thickness in mm (0 disables the frame)")
	frameHeight = flag.Float64("frameheight", 0.0, "Frame height above the tallest relief in mm")
	res         = flag.Float64("res", 5.0, "Sampling resolution in samples per mm")
	width       = flag.Float64("width", 100.0, "Target panel width in mm")
	height      = flag.Float64("height", 150.0, "Target panel height in mm")
	border      = flag.Int("border", 0, "Black border in pixels added around the image")
	output      = flag.String("o", "", "Output filename (single input only; default is the input name with .stl)")
)

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatalf("usage: lithostream [options] image.png ...")
	}
	if *output != "" && flag.NArg() > 1 {
		log.Fatalf("-o can only be used with a single input image")
	}

	for _, arg := range flag.Args() {
		log.Printf("Processing image %q...", arg)
		buf, err := os.ReadFile(arg)
		check("ReadFile: %v", err)

		img, err := imgutil.Decode(buf)
		check("%v: %v", arg, err)
		gray := imgutil.ToGray(img)

		w, h := *width, *height
		if b := gray.Bounds(); b.Dx() > b.Dy() {
			w, h = h, w
		}
		if *frame > 0 {
			w -= 2 * *frame
			h -= 2 * *frame
		}

		gray, err = imgutil.Resize(gray, w, h, *res)
		check("Resize: %v", err)
		gray = imgutil.AddBorder(gray, *border)

		grid, err := imgutil.Intensity(gray)
		check("Intensity: %v", err)

		m, err := litho.Solid(grid, litho.Params{
			MinThick:         *minThick,
			MaxThick:         *maxThick,
			FrameThick:       *frame,
			FrameExtraHeight: *frameHeight,
			Resolution:       *res,
		})
		check("Solid: %v", err)

		filename := *output
		if filename == "" {
			filename = strings.TrimSuffix(arg, filepath.Ext(arg)) + ".stl"
		}

		c, err := stl.New(filename)
		check("stl.New: %v", err)
		err = m.Stream(c)
		check("Stream: %v", err)
		err = c.Close()
		check("Close: %v", err)

		log.Printf("Wrote %v triangles to %q", len(m.Faces), filename)
	}

	log.Println("Done.")
}

func check(fmtStr string, args ...interface{}) {
	err := args[len(args)-1]
	if err != nil {
		log.Fatalf(fmtStr, args...)
	}
}
