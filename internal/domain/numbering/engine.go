package numbering

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fakturo/pkg/logger"
)

// Document type values for the [TYPE] tag.
const (
	TypeGoods   = "T"
	TypeService = "S"
)

// Request carries the context values available to tags at generation time.
type Request struct {
	// EntityType selects the numbering config ("invoice", "delivery_note", ...).
	EntityType string

	// PartnerCode substitutes the [PARTNER] tag. "0" is used when empty.
	PartnerCode string

	// DocType substitutes the [TYPE] tag: TypeGoods, TypeService, or empty.
	DocType string
}

// Engine renders document numbers from the active tenant's configured
// patterns. It holds no counter state of its own; all sequence arithmetic
// lives in the SequenceStore and rides the caller's transaction.
type Engine struct {
	configs   ConfigRepository
	sequences SequenceStore
	now       func() time.Time
}

func NewEngine(configs ConfigRepository, sequences SequenceStore) *Engine {
	return &Engine{
		configs:   configs,
		sequences: sequences,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Generate produces the next number for the entity type. The second return
// is false when the tenant has no config for the type: the caller decides
// its own fallback, the engine never invents a pattern.
//
// All non-counter tags resolve first; their resolved values, joined in
// pattern order, form the scope key under which the counter increments.
// Two generations in the same scope get consecutive counters; a generation
// in a new scope (new month, new partner) starts a fresh counter at 1.
func (e *Engine) Generate(ctx context.Context, req Request) (string, bool, error) {
	cfg, err := e.configs.FindByEntityType(ctx, req.EntityType)
	if err != nil {
		return "", false, fmt.Errorf("load numbering config for %s: %w", req.EntityType, err)
	}
	if cfg == nil {
		return "", false, nil
	}

	segs := ParsePattern(cfg.Pattern)
	now := e.now()

	resolved := make([]string, len(segs))
	var scopeParts []string
	counterIdx := -1

	for i, seg := range segs {
		switch seg.Kind {
		case SegLiteral:
			resolved[i] = seg.Text
			continue
		case SegCounter:
			// Config.Validate allows at most one counter tag; a pattern
			// that slipped past it renders the extras verbatim instead of
			// dropping them.
			if counterIdx >= 0 {
				resolved[i] = counterTagText(seg.Width)
				continue
			}
			counterIdx = i
			continue
		case SegYear4:
			resolved[i] = fmt.Sprintf("%04d", now.Year())
		case SegYear2:
			resolved[i] = fmt.Sprintf("%02d", now.Year()%100)
		case SegMonth:
			resolved[i] = fmt.Sprintf("%02d", int(now.Month()))
		case SegDay:
			resolved[i] = fmt.Sprintf("%02d", now.Day())
		case SegPartner:
			if req.PartnerCode != "" {
				resolved[i] = req.PartnerCode
			} else {
				resolved[i] = "0"
			}
		case SegType:
			resolved[i] = req.DocType
		}
		scopeParts = append(scopeParts, resolved[i])
	}

	if counterIdx >= 0 {
		scopeKey := strings.Join(scopeParts, "-")
		next, err := e.sequences.NextValue(ctx, req.EntityType, scopeKey)
		if err != nil {
			return "", false, fmt.Errorf("next sequence value for %s/%s: %w", req.EntityType, scopeKey, err)
		}
		resolved[counterIdx] = fmt.Sprintf("%0*d", segs[counterIdx].Width, next)
	}

	number := strings.Join(resolved, "")
	logger.Debug(ctx, "generated document number",
		"entity_type", req.EntityType,
		"number", number,
	)
	return number, true, nil
}

// counterTagText reconstructs the source text of a counter tag. Counter tags
// are all C's, so the width determines the text exactly.
func counterTagText(width int) string {
	return "[" + strings.Repeat("C", width) + "]"
}

// Preview renders a pattern without touching the sequence store. The counter
// tag renders as 1 at its configured width, so "FV[YYYY]-[CCCC]" previews
// as "FV2026-0001". Used by the numbering admin API.
func (e *Engine) Preview(pattern string, req Request) string {
	segs := ParsePattern(pattern)
	now := e.now()

	resolved := make([]string, len(segs))
	seenCounter := false
	for i, seg := range segs {
		switch seg.Kind {
		case SegLiteral:
			resolved[i] = seg.Text
		case SegCounter:
			if seenCounter {
				resolved[i] = counterTagText(seg.Width)
				continue
			}
			seenCounter = true
			resolved[i] = fmt.Sprintf("%0*d", seg.Width, 1)
		case SegYear4:
			resolved[i] = fmt.Sprintf("%04d", now.Year())
		case SegYear2:
			resolved[i] = fmt.Sprintf("%02d", now.Year()%100)
		case SegMonth:
			resolved[i] = fmt.Sprintf("%02d", int(now.Month()))
		case SegDay:
			resolved[i] = fmt.Sprintf("%02d", now.Day())
		case SegPartner:
			if req.PartnerCode != "" {
				resolved[i] = req.PartnerCode
			} else {
				resolved[i] = "0"
			}
		case SegType:
			resolved[i] = req.DocType
		}
	}
	return strings.Join(resolved, "")
}
