package shared

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// FormatDuration renders milliseconds as m:ss. Zero and negative values render as "0:00".
func FormatDuration(ms int64) string {
	if ms <= 0 {
		return "0:00"
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatSeconds renders a media position in seconds as m:ss.
// NaN and infinite values render as "0:00".
func FormatSeconds(sec float64) string {
	if math.IsNaN(sec) || math.IsInf(sec, 0) {
		return "0:00"
	}
	return FormatDuration(int64(sec * 1000))
}

// FormatNumber abbreviates large counts with the 万 (1e4) and 亿 (1e8) units.
func FormatNumber(n int64) string {
	switch {
	case n == 0:
		return "0"
	case n >= 100000000:
		return strconv.FormatFloat(float64(n)/100000000, 'f', 1, 64) + "亿"
	case n >= 10000:
		return strconv.FormatFloat(float64(n)/10000, 'f', 1, 64) + "万"
	default:
		return strconv.FormatInt(n, 10)
	}
}

// FormatDate renders t as a short y/m/d date, or "unknown" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("2006/1/2")
}

// PlaylistPageURL is the canonical web page for a playlist.
func PlaylistPageURL(id string) string {
	return "https://music.163.com/#/playlist?id=" + id
}
