// Package feedback collects past user feedback per language pair for the
// user refinement stage.
//
// Notes come from three places, in this order: the built-in defaults, an
// optional YAML file, and notes recorded in the store. A pair listed in the
// file replaces its built-in default; store notes are appended.
package feedback

import (
	"context"
	"fmt"
	"maps"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/valpere/revtran/internal"
)

// Source supplies recorded notes for a pair key such as "english-to-spanish".
type Source interface {
	FeedbackNotes(ctx context.Context, pair string) ([]string, error)
}

type Provider struct {
	base   map[string]string
	source Source
}

// NewProvider builds a provider over base, usually Defaults() merged with a
// file. source may be nil.
func NewProvider(base map[string]string, source Source) *Provider {
	return &Provider{base: normalizeKeys(base), source: source}
}

// For returns the feedback for md's language pair, or "" when there is none.
func (p *Provider) For(ctx context.Context, md internal.Metadata) (string, error) {
	key := md.PairKey()

	var parts []string
	if text := strings.TrimSpace(p.base[key]); text != "" {
		parts = append(parts, text)
	}
	if p.source != nil {
		notes, err := p.source.FeedbackNotes(ctx, key)
		if err != nil {
			return "", fmt.Errorf("load feedback for %s: %w", key, err)
		}
		for _, n := range notes {
			if n = strings.TrimSpace(n); n != "" {
				parts = append(parts, n)
			}
		}
	}
	return strings.Join(parts, "\n"), nil
}

// Merge overlays later maps onto earlier ones, pair by pair.
func Merge(layers ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, l := range layers {
		maps.Copy(out, normalizeKeys(l))
	}
	return out
}

// LoadFile reads a YAML mapping of pair key to notes. A value may be a
// block of text or a list of notes:
//
//	english-to-spanish: |
//	  - keep sentences short
//	english-to-french:
//	  - prefer vous
//	  - avoid anglicisms
func LoadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feedback file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (map[string]string, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse feedback file: %w", err)
	}

	out := make(map[string]string, len(raw))
	for pair, node := range raw {
		switch node.Kind {
		case yaml.ScalarNode:
			var text string
			if err := node.Decode(&text); err != nil {
				return nil, fmt.Errorf("feedback %s: %w", pair, err)
			}
			out[pair] = text
		case yaml.SequenceNode:
			var notes []string
			if err := node.Decode(&notes); err != nil {
				return nil, fmt.Errorf("feedback %s: %w", pair, err)
			}
			lines := make([]string, 0, len(notes))
			for _, n := range notes {
				n = strings.TrimSpace(n)
				if n == "" {
					continue
				}
				if !strings.HasPrefix(n, "-") {
					n = "- " + n
				}
				lines = append(lines, n)
			}
			out[pair] = strings.Join(lines, "\n")
		default:
			return nil, fmt.Errorf("feedback %s: expected text or a list of notes", pair)
		}
	}
	return normalizeKeys(out), nil
}

func normalizeKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}
