// Copyright 2025 NobelLM Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package domain holds the data model shared across every pipeline stage:
// Chunk, LaureateRecord, theme configuration, and the per-request
// QueryContext. None of these types reach back into a specific stage's
// package, which keeps the stages independently testable.
package domain

// SourceType identifies the kind of passage a Chunk was extracted from.
type SourceType string

const (
	SourceNobelLecture     SourceType = "nobel_lecture"
	SourceAcceptanceSpeech SourceType = "acceptance_speech"
	SourceCeremonySpeech   SourceType = "ceremony_speech"
	SourcePrizeMotivation  SourceType = "prize_motivation"
	SourceLifeBlurb        SourceType = "life_blurb"
	SourceWorkBlurb        SourceType = "work_blurb"
)

// Chunk is a single contiguous, embedded passage loaded at startup.
// Chunks are immutable once loaded: no stage ever mutates a Chunk value,
// it is always copied by value across stage boundaries.
type Chunk struct {
	ChunkID            string     `json:"chunk_id"`
	Text               string     `json:"text"`
	SourceType         SourceType `json:"source_type"`
	Laureate           string     `json:"laureate"`
	YearAwarded        int        `json:"year_awarded"`
	Country            string     `json:"country"`
	CountryFlag        string     `json:"country_flag"`
	Gender             string     `json:"gender"`
	Category           string     `json:"category"`
	PrizeMotivation    string     `json:"prize_motivation"`
	SpecificWorkCited  bool       `json:"specific_work_cited"`
	Embedding          []float32  `json:"embedding"`
}

// ScoredChunk pairs a Chunk with its retrieval score. Collections of
// ScoredChunk are always sorted by descending Score, ties broken by
// ascending ChunkID (see retrieval.SortScoredChunks).
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}

// LaureateRecord is the metadata-only twin of Chunk: one per (year,
// laureate) pair, with no text or embedding. Loaded once at startup and
// never mutated afterward.
type LaureateRecord struct {
	Laureate        string `json:"laureate"`
	YearAwarded     int    `json:"year_awarded"`
	Country         string `json:"country"`
	CountryFlag     string `json:"country_flag"`
	Gender          string `json:"gender"`
	Category        string `json:"category"`
	PrizeMotivation string `json:"prize_motivation"`
}
