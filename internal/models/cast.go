package models

import "time"

// Cast is one post fetched from the social source. Only Text is required by
// the analysis pipeline; the rest is carried for engagement insights.
type Cast struct {
	Hash      string    `json:"hash,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	IsRecast  bool      `json:"is_recast,omitempty"`
	Likes     int       `json:"likes,omitempty"`
	Recasts   int       `json:"recasts,omitempty"`
	Replies   int       `json:"replies,omitempty"`
}
