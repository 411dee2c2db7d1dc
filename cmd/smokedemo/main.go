// Command smokedemo drives a small smoke-and-heat scene and writes one PNG
// frame per step to an output directory, exercising the fluid package
// without any windowing or rendering dependency.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/mmmovania/incremental-fluids/pkg/fluid"
)

func main() {
	var (
		width   = flag.Int("width", 128, "grid width in cells")
		height  = flag.Int("height", 128, "grid height in cells")
		frames  = flag.Int("frames", 120, "number of steps to simulate")
		dt      = flag.Float64("dt", 0.01, "timestep in seconds")
		outDir  = flag.String("out", "frames", "output directory for PNG frames")
		heatmap = flag.Bool("heat", true, "add a temperature panel beside the smoke panel")
	)
	flag.Parse()

	bodies := []fluid.SolidBody{
		fluid.NewSphere(0.5, 0.6, 0.2, 0, 0, 0),
	}

	sim, err := fluid.New(*width, *height, 0.1, 1.0, 0.02, bodies)
	if err != nil {
		log.Fatalf("smokedemo: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("smokedemo: %v", err)
	}

	imgWidth := *width
	if *heatmap {
		imgWidth = 2 * *width
	}
	buf := make([]byte, imgWidth*(*height)*4)

	for i := 0; i < *frames; i++ {
		sim.AddInflow(0.45, 0.1, 0.1, 0.05, 1.0, 600.0, 0.0, 1.0)

		if err := sim.Step(*dt); err != nil {
			log.Fatalf("smokedemo: step %d: %v", i, err)
		}

		sim.ToImage(buf, *heatmap)
		if err := writeFrame(*outDir, i, imgWidth, *height, buf); err != nil {
			log.Fatalf("smokedemo: frame %d: %v", i, err)
		}
	}
}

func writeFrame(dir string, index, w, h int, buf []byte) error {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := (x + y*w) * 4
			img.SetRGBA(x, y, color.RGBA{
				R: buf[off+0],
				G: buf[off+1],
				B: buf[off+2],
				A: buf[off+3],
			})
		}
	}

	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("frame%05d.png", index)))
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}
