// Package eventbus is the advisory, non-blocking progress channel producers
// write to and the caller polls: a typed event over a bounded Go channel
// with oldest-drop semantics on contention (§4.6).
package eventbus

import (
	"time"
)

// Level is the event's severity.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Canonical stage/substage strings producers use; UI consumers dispatch on
// these, so they are a contract (§4.6).
const (
	StageLabPrep    = "lab_prep"
	StageNGS        = "ngs"
	StageAnnotation = "annotation"
	StageEnrichment = "enrichment"
	StageReport     = "report"
	StageError      = "error"

	SubstageStart              = "start"
	SubstageInit               = "init"
	SubstageVariantDiscovery   = "variant_discovery"
	SubstageClinicalValidation = "clinical_validation"
	SubstageProcessing         = "processing"
	SubstageSingleGene         = "single_gene"
	SubstageMultiGene          = "multi_gene"
	SubstageDrugDiseaseContext = "drug_disease_context"
	SubstageRDFAssembly        = "rdf_assembly"
	SubstageProfileGeneration  = "profile_generation"
	SubstageVariantLinking     = "variant_linking"
	SubstageExport             = "export"
	SubstageComplete           = "complete"
	SubstagePipeline           = "pipeline"
)

// Event is one progress record. Progress is nil when not meaningfully
// computable at the emit site.
type Event struct {
	Stage     string
	Substage  string
	Level     Level
	Message   string
	Progress  *float64
	Payload   map[string]any
	Timestamp time.Time
}

// Bus is a multi-producer, single-consumer-expected channel of Events.
// Emit never blocks: on a full queue the oldest buffered event is dropped
// to make room, since events are advisory and fatal errors are always
// additionally surfaced as the producing phase's own Result.
type Bus struct {
	events chan Event
}

// New creates a Bus with the given bounded capacity.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = 256
	}
	return &Bus{events: make(chan Event, capacity)}
}

// Emit records an event, dropping the oldest buffered one if the channel is full.
func (b *Bus) Emit(stage, substage string, level Level, message string, progress *float64, payload map[string]any) {
	event := Event{
		Stage:     orDefault(stage, "unknown"),
		Substage:  orDefault(substage, "unknown"),
		Level:     level,
		Message:   orDefault(message, "No message"),
		Progress:  progress,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	if event.Level == "" {
		event.Level = LevelInfo
	}

	select {
	case b.events <- event:
		return
	default:
	}

	select {
	case <-b.events:
	default:
	}
	select {
	case b.events <- event:
	default:
	}
}

// Events exposes the receive side for a consumer to range over.
func (b *Bus) Events() <-chan Event {
	return b.events
}

// Close signals no further events will be emitted; safe to call once.
func (b *Bus) Close() {
	close(b.events)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Progress wraps a float64 for the optional Event.Progress field.
func Progress(v float64) *float64 {
	return &v
}
