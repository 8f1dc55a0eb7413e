// Package mapimage loads radar textures and resamples them to the terminal grid
package mapimage

import (
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/lixenwraith/radarterm/terminal"
)

// ErrNotFound reports that no candidate path held a texture
var ErrNotFound = errors.New("map texture not found")

// Texture is an image resampled to one texel per cell
type Texture struct {
	W, H  int
	Pix   []terminal.RGB
	Alpha []uint8
}

// At returns the texel color and coverage in [0, 1]
func (t *Texture) At(x, y int) (terminal.RGB, float64) {
	if t == nil || x < 0 || y < 0 || x >= t.W || y >= t.H {
		return terminal.RGB{}, 0
	}
	i := y*t.W + x
	return t.Pix[i], float64(t.Alpha[i]) / 255
}

// Candidates lists the paths tried for a map, in order
func Candidates(dir, mapName string) []string {
	key := strings.ToLower(strings.TrimSpace(mapName))
	if key == "" {
		return nil
	}
	return []string{
		filepath.Join(dir, "de_"+key, "radar.png"),
		filepath.Join(dir, key, "radar.png"),
		filepath.Join(dir, key+".png"),
	}
}

// Load decodes the first candidate texture that exists
func Load(dir, mapName string) (image.Image, string, error) {
	for _, path := range Candidates(dir, mapName) {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, path, fmt.Errorf("decode %s: %w", path, err)
		}
		return img, path, nil
	}
	return nil, "", fmt.Errorf("%s in %s: %w", mapName, dir, ErrNotFound)
}

// Scale resamples img to w x h texels with bilinear filtering
func Scale(img image.Image, w, h int) *Texture {
	if img == nil || w <= 0 || h <= 0 {
		return nil
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	t := &Texture{W: w, H: h, Pix: make([]terminal.RGB, w*h), Alpha: make([]uint8, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := dst.PixOffset(x, y)
			i := y*w + x
			t.Pix[i] = terminal.RGB{R: dst.Pix[o], G: dst.Pix[o+1], B: dst.Pix[o+2]}
			t.Alpha[i] = dst.Pix[o+3]
		}
	}
	return t
}

type sizeKey struct {
	name string
	w, h int
}

// Cache loads each map once and keeps one scaled texture per size
// A failed load is remembered; there is no retry
type Cache struct {
	dir    string
	images map[string]image.Image // nil value: known missing
	scaled map[sizeKey]*Texture
}

// NewCache reads textures from dir; an empty dir disables loading
func NewCache(dir string) *Cache {
	return &Cache{
		dir:    dir,
		images: make(map[string]image.Image),
		scaled: make(map[sizeKey]*Texture),
	}
}

// Preload loads a map's texture, returning the load error on first failure
func (c *Cache) Preload(mapName string) error {
	key := strings.ToLower(mapName)
	if img, ok := c.images[key]; ok {
		if img == nil {
			return fmt.Errorf("%s: %w", mapName, ErrNotFound)
		}
		return nil
	}
	if c.dir == "" {
		c.images[key] = nil
		return fmt.Errorf("%s: no map directory: %w", mapName, ErrNotFound)
	}
	img, path, err := Load(c.dir, mapName)
	if err != nil {
		c.images[key] = nil
		log.Printf("[mapimage] %v", err)
		return err
	}
	log.Printf("[mapimage] loaded %s (%dx%d)", path, img.Bounds().Dx(), img.Bounds().Dy())
	c.images[key] = img
	return nil
}

// Texture returns the map texture scaled to w x h, nil when unavailable
func (c *Cache) Texture(mapName string, w, h int) *Texture {
	if mapName == "" {
		return nil
	}
	key := strings.ToLower(mapName)
	if _, ok := c.images[key]; !ok {
		_ = c.Preload(mapName)
	}
	img := c.images[key]
	if img == nil {
		return nil
	}
	sk := sizeKey{name: key, w: w, h: h}
	if t, ok := c.scaled[sk]; ok {
		return t
	}
	// Only the current size is worth keeping after a resize
	for k := range c.scaled {
		if k.name == key {
			delete(c.scaled, k)
		}
	}
	t := Scale(img, w, h)
	c.scaled[sk] = t
	return t
}
