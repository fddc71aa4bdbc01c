package models

import "time"

// RenderedPage is what a page renderer hands to the extractor: the DOM after
// network quiescence plus navigation metadata.
type RenderedPage struct {
	// RequestedURL is the URL the caller asked for.
	RequestedURL string

	// FinalURL is the document URL after redirects.
	FinalURL string

	// HTML is the serialized rendered DOM.
	HTML string

	// StatusCode is the final HTTP status of the main document.
	StatusCode int

	// LoadTime is the wall-clock time from navigation start to quiescence.
	LoadTime time.Duration
}

// Image is one <img> element found on the page.
type Image struct {
	Src string `json:"src"`

	// Alt is nil when the attribute is missing or blank.
	Alt *string `json:"alt"`
}

// Signals is the set of on-page measurements taken from one rendered page.
// It is built once by the extractor and only read afterwards.
type Signals struct {
	Title       string `json:"title"`
	TitleLength int    `json:"title_length"`

	// Description is nil when the page has no <meta name="description">.
	// A present but empty tag yields a pointer to "".
	Description       *string `json:"description"`
	DescriptionLength int     `json:"description_length"`

	H1     []string `json:"h1"`
	Images []Image  `json:"images"`

	WordCount      int   `json:"word_count"`
	LoadTimeMillis int64 `json:"load_time_ms"`
	HTTPStatus     int   `json:"http_status"`

	// Supplementary signals, consumed only by the extended rule catalog.
	Lang              string `json:"lang,omitempty"`
	Canonical         string `json:"canonical,omitempty"`
	HasViewport       bool   `json:"has_viewport"`
	ReadableWordCount int    `json:"readable_word_count"`
}

// HasDescription reports whether a description meta tag was present.
func (s *Signals) HasDescription() bool {
	return s.Description != nil
}

// ImagesWithoutAlt counts images whose alt text is missing or blank.
func (s *Signals) ImagesWithoutAlt() int {
	n := 0
	for _, img := range s.Images {
		if img.Alt == nil {
			n++
		}
	}
	return n
}
