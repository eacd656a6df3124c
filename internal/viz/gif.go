package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
)

const maxFrames = 1800

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.frames = make([]*image.Paletted, 0, frameRate)
		m.notice = ""
		return
	}
	m.recording = false
	if err := saveGIF(m.opts.GIFPath, m.frames); err != nil {
		m.notice = err.Error()
	} else {
		m.notice = fmt.Sprintf("saved %d frames to %s", len(m.frames), m.opts.GIFPath)
	}
	m.frames = nil
}

// captureFrame rasterises the braille canvas, one block per dot.
func (m *Model) captureFrame() {
	if len(m.frames) >= maxFrames {
		return
	}
	m.frames = append(m.frames, rasterize(m.canvas, 8, 16))
}

func rasterize(c *Canvas, charW, charH int) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, c.Width*charW, c.Height*charH), color.Palette{color.Black, color.White})
	dotW, dotH := charW/2, charH/4
	for y := 0; y < c.Height*4; y++ {
		for x := 0; x < c.Width*2; x++ {
			if !c.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	return img
}

func saveGIF(path string, frames []*image.Paletted) error {
	if len(frames) == 0 {
		return fmt.Errorf("viz: no frames recorded")
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}
