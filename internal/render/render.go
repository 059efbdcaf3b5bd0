// Package render draws the arena scoreboard card: both fighters' portraits,
// health bars, status badges and the match result, as a PNG.
package render

import (
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/font/basicfont"

	"github.com/cory-johannsen/arena/internal/game/fighter"
	"github.com/cory-johannsen/arena/internal/game/match"
)

// Card geometry in pixels.
const (
	CardWidth    = 800
	CardHeight   = 360
	PortraitSize = 140

	panelWidth = 360
	panelPad   = 20
	barY       = 216
	barWidth   = panelWidth - 2*panelPad
	barHeight  = 24
)

const (
	// maxPortraitBytes caps a remote portrait download.
	maxPortraitBytes = 8 << 20
	// failureTTL is how long a portrait that failed to load is served as a
	// placeholder before it is fetched again.
	failureTTL = 5 * time.Minute
)

// Colours used on the card.
var (
	background = color.RGBA{0x1a, 0x1a, 0x1a, 0xff}
	panelColor = color.RGBA{0x2b, 0x2b, 0x33, 0xff}
	barTrack   = color.RGBA{0x44, 0x44, 0x44, 0xff}
	textColor  = color.RGBA{0xee, 0xee, 0xee, 0xff}
	blockColor = color.RGBA{0x39, 0x8c, 0xff, 0xff}
	coolColor  = color.RGBA{0xff, 0x85, 0x1b, 0xff}
	winColor   = color.RGBA{0xff, 0xd7, 0x00, 0xff}

	bandColors = map[match.HealthBand]color.RGBA{
		match.BandGreen:  {0x2e, 0xcc, 0x40, 0xff},
		match.BandYellow: {0xff, 0xdc, 0x00, 0xff},
		match.BandRed:    {0xff, 0x41, 0x36, 0xff},
	}
)

// BandColor returns the bar colour for band.
func BandColor(band match.HealthBand) color.RGBA {
	if c, ok := bandColors[band]; ok {
		return c
	}
	return bandColors[match.BandRed]
}

// Renderer draws scoreboard cards. Portraits are loaded from a local path
// or an http(s) URL and cached by source. It is safe for concurrent use.
type Renderer struct {
	client   *http.Client
	logger   *zap.Logger
	maxBytes int64
	now      func() time.Time

	mu    sync.RWMutex
	cache map[string]portraitEntry
}

// portraitEntry is a cached portrait. A nil img records a failed load, and a
// zero expires never expires.
type portraitEntry struct {
	img     image.Image
	expires time.Time
}

// NewRenderer creates a Renderer.
//
// Precondition: logger must be non-nil.
func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logger,
		maxBytes: maxPortraitBytes,
		now:      time.Now,
		cache:    make(map[string]portraitEntry),
	}
}

// WritePNG renders snap and encodes it to w.
func (r *Renderer) WritePNG(ctx context.Context, w io.Writer, snap match.Snapshot) error {
	return imaging.Encode(w, r.Card(ctx, snap), imaging.PNG)
}

// Card renders snap as a CardWidth x CardHeight image.
//
// Postcondition: Never fails; missing portraits are replaced by placeholders.
func (r *Renderer) Card(ctx context.Context, snap match.Snapshot) image.Image {
	dc := gg.NewContext(CardWidth, CardHeight)
	dc.SetColor(background)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	if snap.Left == nil || snap.Right == nil {
		dc.SetColor(textColor)
		drawScaled(dc, "SELECT TWO FIGHTERS", CardWidth/2, CardHeight/2, 2)
		return dc.Image()
	}

	r.drawSide(ctx, dc, panelPad, *snap.Left, snap)
	r.drawSide(ctx, dc, CardWidth-panelPad-panelWidth, *snap.Right, snap)

	dc.SetColor(textColor)
	drawScaled(dc, "VS", CardWidth/2, 126, 3)

	banner := snap.Announcement()
	if banner == "" {
		banner = strings.ToUpper(strings.ReplaceAll(snap.Status, "_", " "))
	} else {
		dc.SetColor(winColor)
	}
	drawScaled(dc, banner, CardWidth/2, CardHeight-24, 2)
	return dc.Image()
}

func (r *Renderer) drawSide(ctx context.Context, dc *gg.Context, x float64, s match.SideSnapshot, snap match.Snapshot) {
	dc.SetColor(panelColor)
	dc.DrawRoundedRectangle(x, 12, panelWidth, CardHeight-60, 8)
	dc.Fill()

	center := x + panelWidth/2
	dc.SetColor(textColor)
	drawScaled(dc, s.Fighter.Name, center, 34, 2)

	portrait := r.portrait(ctx, s.Fighter)
	if snap.Draw || (snap.Winner != nil && snap.Winner.Side != s.Side) {
		portrait = imaging.Grayscale(portrait)
	}
	dc.DrawImage(portrait, int(center-PortraitSize/2), 56)

	bx := x + panelPad
	dc.SetColor(barTrack)
	dc.DrawRectangle(bx, barY, barWidth, barHeight)
	dc.Fill()
	if fill := math.Max(0, math.Min(1, s.Fraction)) * barWidth; fill > 0 {
		dc.SetColor(BandColor(s.Band))
		dc.DrawRectangle(bx, barY, fill, barHeight)
		dc.Fill()
	}

	dc.SetColor(textColor)
	dc.DrawStringAnchored(s.HealthText(), center, barY+barHeight+18, 0.5, 0.5)

	var badges []string
	if s.Blocking {
		dc.SetColor(blockColor)
		badges = append(badges, "BLOCKING")
	}
	if s.Cooldown {
		dc.SetColor(coolColor)
		badges = append(badges, fmt.Sprintf("COOLDOWN %.1fs", float64(s.CooldownMS)/1000))
	}
	if len(badges) > 0 {
		dc.DrawStringAnchored(strings.Join(badges, "  "), center, barY+barHeight+40, 0.5, 0.5)
	}
}

func drawScaled(dc *gg.Context, s string, x, y, scale float64) {
	dc.Push()
	dc.ScaleAbout(scale, scale, x, y)
	dc.DrawStringAnchored(s, x, y, 0.5, 0.5)
	dc.Pop()
}

// portrait returns f's image scaled to PortraitSize, or a placeholder.
// Load failures are remembered for failureTTL.
func (r *Renderer) portrait(ctx context.Context, f fighter.Fighter) image.Image {
	if f.Source == "" {
		return Placeholder(f)
	}
	r.mu.RLock()
	entry, ok := r.cache[f.Source]
	r.mu.RUnlock()
	if ok && (entry.expires.IsZero() || r.now().Before(entry.expires)) {
		if entry.img == nil {
			return Placeholder(f)
		}
		return entry.img
	}

	src, err := r.load(ctx, f.Source)
	if err == nil {
		img := imaging.Fill(src, PortraitSize, PortraitSize, imaging.Center, imaging.Lanczos)
		r.store(f.Source, portraitEntry{img: img})
		return img
	}
	r.logger.Debug("portrait unavailable",
		zap.String("fighter", f.ID),
		zap.String("source", f.Source),
		zap.Error(err),
	)
	// A cancelled request says nothing about the source.
	if ctx.Err() == nil {
		r.store(f.Source, portraitEntry{expires: r.now().Add(failureTTL)})
	}
	return Placeholder(f)
}

func (r *Renderer) store(source string, entry portraitEntry) {
	r.mu.Lock()
	r.cache[source] = entry
	r.mu.Unlock()
}

func (r *Renderer) load(ctx context.Context, source string) (image.Image, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		if _, err := os.Stat(source); err != nil {
			return nil, err
		}
		return imaging.Open(source)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: %s", source, resp.Status)
	}
	img, err := imaging.Decode(io.LimitReader(resp.Body, r.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", source, err)
	}
	return img, nil
}

// Placeholder draws a solid tile with the fighter's initial, coloured by ID.
func Placeholder(f fighter.Fighter) image.Image {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(f.ID))
	h := hash.Sum32()
	tile := imaging.New(PortraitSize, PortraitSize, color.RGBA{uint8(h), uint8(h >> 8), uint8(h >> 16), 0xff})

	dc := gg.NewContextForImage(tile)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(textColor)
	initial := "?"
	if f.Name != "" {
		initial = strings.ToUpper(string([]rune(f.Name)[:1]))
	}
	drawScaled(dc, initial, PortraitSize/2, PortraitSize/2, 6)
	return dc.Image()
}
