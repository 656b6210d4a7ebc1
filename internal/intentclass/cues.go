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

// Package intentclass implements the Intent Classifier: a pure function
// over (query, cue-set) -> scores, expressed as typed configuration
// rather than sprawling if/else branches, per the Design Notes.
package intentclass

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

// Cue is one scoring rule: a regex pattern contributing Weight to
// Intent whenever it matches the query.
type Cue struct {
	Intent  domain.Intent `json:"intent"`
	Pattern string        `json:"pattern"`
	Weight  float64       `json:"weight"`

	compiled *regexp.Regexp
}

// SubtypeCue scores a thematic subtype the same way a Cue scores an
// intent.
type SubtypeCue struct {
	Subtype domain.ThematicSubtype `json:"subtype"`
	Pattern string                 `json:"pattern"`
	Weight  float64                `json:"weight"`

	compiled *regexp.Regexp
}

// CueSet is the full, loaded configuration: intent cues and subtype
// cues. The form cues (email/speech/reflection for generative routing,
// analytical/comparative/factual for qa routing) are not part of it;
// they are fixed keyword checks in internal/router (FormCue, QAFormCue).
type CueSet struct {
	IntentCues  []Cue        `json:"intent_cues"`
	SubtypeCues []SubtypeCue `json:"subtype_cues"`
}

// Compile precompiles every regex once so Classify never compiles on
// the hot path.
func (cs *CueSet) Compile() error {
	for i := range cs.IntentCues {
		re, err := regexp.Compile("(?i)" + cs.IntentCues[i].Pattern)
		if err != nil {
			return fmt.Errorf("compile intent cue %q: %w", cs.IntentCues[i].Pattern, err)
		}
		cs.IntentCues[i].compiled = re
	}
	for i := range cs.SubtypeCues {
		re, err := regexp.Compile("(?i)" + cs.SubtypeCues[i].Pattern)
		if err != nil {
			return fmt.Errorf("compile subtype cue %q: %w", cs.SubtypeCues[i].Pattern, err)
		}
		cs.SubtypeCues[i].compiled = re
	}
	return nil
}

// LoadCueSet reads a CueSet from a JSON file and compiles its patterns.
func LoadCueSet(path string) (*CueSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cue config %s: %w", path, err)
	}
	var cs CueSet
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("parse cue config %s: %w", path, err)
	}
	if err := cs.Compile(); err != nil {
		return nil, err
	}
	return &cs, nil
}

// DefaultCueSet returns the built-in cue configuration described in
// the built-in cue table, used when no cues_path override is configured.
func DefaultCueSet() *CueSet {
	cs := &CueSet{
		IntentCues: []Cue{
			{Intent: domain.IntentFactualMetadata, Pattern: `\bwho won\b`, Weight: 2.0},
			{Intent: domain.IntentFactualMetadata, Pattern: `\bwhich (country|laureate)\b`, Weight: 1.5},
			{Intent: domain.IntentFactualMetadata, Pattern: `\bhow many laureates\b`, Weight: 2.0},
			{Intent: domain.IntentFactualMetadata, Pattern: `\bwhat (year|country)\b`, Weight: 1.0},
			{Intent: domain.IntentFactualMetadata, Pattern: `\bwhen did\b`, Weight: 1.5},
			{Intent: domain.IntentFactualMetadata, Pattern: `\bwhere is\b`, Weight: 1.0},

			{Intent: domain.IntentGenerative, Pattern: `\bwrite (a|an)\b`, Weight: 2.0},
			{Intent: domain.IntentGenerative, Pattern: `\bin the (tone|voice|style) of\b`, Weight: 2.0},
			{Intent: domain.IntentGenerative, Pattern: `\bcompose\b`, Weight: 1.5},
			{Intent: domain.IntentGenerative, Pattern: `\bdraft\b`, Weight: 1.0},

			{Intent: domain.IntentThematic, Pattern: `\bwhat do laureates say about\b`, Weight: 2.0},
			{Intent: domain.IntentThematic, Pattern: `\bacross (the corpus|laureates)\b`, Weight: 1.5},
			{Intent: domain.IntentThematic, Pattern: `\btheme\b`, Weight: 1.0},

			{Intent: domain.IntentScoped, Pattern: `\bwhat did .+ say\b`, Weight: 2.0},
			{Intent: domain.IntentScoped, Pattern: `\baccording to\b`, Weight: 1.0},
		},
		SubtypeCues: []SubtypeCue{
			{Subtype: domain.SubtypeEnumerative, Pattern: `\blist\b`, Weight: 1.0},
			{Subtype: domain.SubtypeEnumerative, Pattern: `\bexamples\b`, Weight: 1.0},
			{Subtype: domain.SubtypeEnumerative, Pattern: `\bwhich laureates\b`, Weight: 1.0},
			{Subtype: domain.SubtypeEnumerative, Pattern: `\bname some\b`, Weight: 1.0},

			{Subtype: domain.SubtypeAnalytical, Pattern: `\bcompare\b`, Weight: 1.0},
			{Subtype: domain.SubtypeAnalytical, Pattern: `\bcontrast\b`, Weight: 1.0},
			{Subtype: domain.SubtypeAnalytical, Pattern: `\bdiffer\b`, Weight: 1.0},
			{Subtype: domain.SubtypeAnalytical, Pattern: `\bversus\b`, Weight: 1.0},

			{Subtype: domain.SubtypeExploratory, Pattern: `\bcontext\b`, Weight: 1.0},
			{Subtype: domain.SubtypeExploratory, Pattern: `\bbackground\b`, Weight: 1.0},
			{Subtype: domain.SubtypeExploratory, Pattern: `\bwhy\b`, Weight: 0.8},
			{Subtype: domain.SubtypeExploratory, Pattern: `\bhow did\b`, Weight: 1.0},
		},
	}
	_ = cs.Compile()
	return cs
}
