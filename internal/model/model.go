package model

import (
	"sort"
	"strconv"
	"strings"
)

type ItemKind string

const (
	KindImage ItemKind = "image"
	KindVideo ItemKind = "video"
)

// Format markers the backend uses for items it could not verify (ERR) or that
// exceed its size limit (BIG). Such items are never displayed.
const (
	FormatError = "ERR"
	FormatBig   = "BIG"
)

type Item struct {
	ID   string   `json:"id"`
	Kind ItemKind `json:"kind"`
	Fmt  string   `json:"fmt,omitempty"`
	CT   string   `json:"ct,omitempty"`
	W    int      `json:"w,omitempty"`
	H    int      `json:"h,omitempty"`
	URL  string   `json:"url"`
	Size int64    `json:"size,omitempty"`
}

func (it Item) IsImage() bool { return it.Kind == KindImage }

// HasDimensions reports whether both width and height are known.
func (it Item) HasDimensions() bool { return it.W > 0 && it.H > 0 }

// Excluded reports whether the backend marked the item as permanently hidden.
func (it Item) Excluded() bool { return it.Fmt == FormatError || it.Fmt == FormatBig }

type JobStatus string

const (
	JobIdle      JobStatus = "idle"
	JobRunning   JobStatus = "running"
	JobDone      JobStatus = "done"
	JobError     JobStatus = "error"
	JobCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether no further transition can happen.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobDone, JobError, JobCancelled:
		return true
	default:
		return false
	}
}

type JobKind string

const (
	JobKindScan        JobKind = "scan"
	JobKindGDLDirect   JobKind = "gdl_direct"
	JobKindYTDLPDirect JobKind = "ytdlp_direct"
)

type Job struct {
	ID            string    `json:"id"`
	Status        JobStatus `json:"status"`
	Message       string    `json:"message,omitempty"`
	ProgressIndex int       `json:"progress_i"`
	ProgressTotal int       `json:"progress_total"`
	JobType       JobKind   `json:"job_type,omitempty"`
	CreatedAt     float64   `json:"created_at,omitempty"`
	FinishedAt    float64   `json:"finished_at,omitempty"`
}

// Percent returns the completion percentage. ok is false when the total is
// unknown, in which case no progress should be displayed.
func (j Job) Percent() (pct float64, ok bool) {
	if j.ProgressTotal <= 0 {
		return 0, false
	}
	return float64(j.ProgressIndex) / float64(j.ProgressTotal) * 100, true
}

func (j Job) DisplayMessage() string {
	if strings.TrimSpace(j.Message) != "" {
		return j.Message
	}
	return string(j.Status)
}

// FilterState is the user's current view filter. An empty Formats set means
// no format restriction.
type FilterState struct {
	MinW    int
	MinH    int
	Formats map[string]bool
}

func (f FilterState) Clone() FilterState {
	out := FilterState{MinW: f.MinW, MinH: f.MinH}
	if len(f.Formats) > 0 {
		out.Formats = make(map[string]bool, len(f.Formats))
		for k, v := range f.Formats {
			if v {
				out.Formats[k] = true
			}
		}
	}
	return out
}

func (f FilterState) HasFormat(key string) bool {
	return f.Formats[strings.ToLower(strings.TrimSpace(key))]
}

func (f FilterState) FormatKeys() []string {
	var out []string
	for k, v := range f.Formats {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Toggle flips membership of key in Formats.
func (f *FilterState) Toggle(key string) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return
	}
	if f.Formats == nil {
		f.Formats = map[string]bool{}
	}
	if f.Formats[key] {
		delete(f.Formats, key)
		return
	}
	f.Formats[key] = true
}

// SetMinSize stores the size thresholds, clamping negatives to zero.
func (f *FilterState) SetMinSize(w, h int) {
	f.MinW = max(w, 0)
	f.MinH = max(h, 0)
}

type ThumbSize string

const (
	ThumbS  ThumbSize = "S"
	ThumbM  ThumbSize = "M"
	ThumbL  ThumbSize = "L"
	ThumbXL ThumbSize = "XL"

	DefaultThumbSize = ThumbM
)

var ThumbSizes = []ThumbSize{ThumbS, ThumbM, ThumbL, ThumbXL}

var thumbPixels = map[ThumbSize]int{
	ThumbS:  120,
	ThumbM:  160,
	ThumbL:  200,
	ThumbXL: 240,
}

func (s ThumbSize) Pixels() int {
	if px, ok := thumbPixels[s]; ok {
		return px
	}
	return thumbPixels[DefaultThumbSize]
}

// ParseThumbSize accepts a size class ("S".."XL", any case) or one of the
// pixel widths the class maps to.
func ParseThumbSize(s string) (ThumbSize, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, ts := range ThumbSizes {
		if string(ts) == s {
			return ts, true
		}
	}
	for ts, px := range thumbPixels {
		if s == strconv.Itoa(px) {
			return ts, true
		}
	}
	return DefaultThumbSize, false
}

// Next cycles S -> M -> L -> XL -> S.
func (s ThumbSize) Next() ThumbSize {
	for i, ts := range ThumbSizes {
		if ts == s {
			return ThumbSizes[(i+1)%len(ThumbSizes)]
		}
	}
	return DefaultThumbSize
}
