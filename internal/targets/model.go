package targets

import "time"

type Image string

const (
	ImageIndia    = Image("flag-india")
	ImageIsrael   = Image("flag-israel")
	ImageIskcon   = Image("iskcon-logo")
	ImageALLeague = Image("al-league")
)

// Images is the fixed set a target picks from.
var Images = []Image{ImageIndia, ImageIsrael, ImageIskcon, ImageALLeague}

var imageFiles = map[Image]string{
	ImageIndia:    "flag-india.webp",
	ImageIsrael:   "flag-israel.webp",
	ImageIskcon:   "iskcon-logo-250.jpg",
	ImageALLeague: "al-league.jpg",
}

var imageLabels = map[Image]string{
	ImageIndia:    "IN",
	ImageIsrael:   "IL",
	ImageIskcon:   "IS",
	ImageALLeague: "AL",
}

// File is the asset file name served under /static/img/.
func (i Image) File() string {
	return imageFiles[i]
}

// Label is a two letter tag for frontends that cannot draw the image.
func (i Image) Label() string {
	if l, ok := imageLabels[i]; ok {
		return l
	}
	return "??"
}

type Target struct {
	ID        int
	Image     Image
	X         int
	Y         int
	Size      int
	SpawnedAt time.Time
}

// Contains reports whether the point lies on the target's square.
func (t Target) Contains(x, y int) bool {
	return x >= t.X && x < t.X+t.Size && y >= t.Y && y < t.Y+t.Size
}
