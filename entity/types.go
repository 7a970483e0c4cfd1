// Package entity defines the ECARE data model: canonical entities, typed
// relationships between them, provenance rows, and the merge audit trail.
package entity

import (
	"strings"
	"time"
)

// Type classifies a canonical entity.
type Type string

const (
	TypePerson       Type = "person"
	TypeOrganization Type = "organization"
	TypeLocation     Type = "location"
	TypeDocument     Type = "document"
	TypeAircraft     Type = "aircraft"
	TypeProperty     Type = "property"
	TypeShellCompany Type = "shell_company"
)

// idPrefixes maps entity types to their canonical id prefix.
// Shell companies share the ORG id space: they are a subtype of org.
var idPrefixes = map[Type]string{
	TypePerson:       "PER",
	TypeOrganization: "ORG",
	TypeLocation:     "LOC",
	TypeDocument:     "DOC",
	TypeAircraft:     "AIR",
	TypeProperty:     "PROP",
	TypeShellCompany: "ORG",
}

// IDPrefix returns the canonical id prefix for a type ("ENT" for unknown types).
func (t Type) IDPrefix() string {
	if p, ok := idPrefixes[t]; ok {
		return p
	}
	return "ENT"
}

// Valid reports whether t is one of the known entity types.
func (t Type) Valid() bool {
	_, ok := idPrefixes[t]
	return ok
}

// Entity is a canonical real-world entity: the single deduplicated record
// for one person, organization, location, etc.
type Entity struct {
	ID            string
	Type          Type
	CanonicalName string
	Aliases       []string
	Metadata      Metadata
	FirstSeen     time.Time
	LastUpdated   time.Time
	Notes         string
}

// AddAlias appends an alias, preserving the invariants: the alias set never
// contains a case-insensitive duplicate of itself or of the canonical name.
// Returns true if the alias was added.
func (e *Entity) AddAlias(alias string) bool {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return false
	}
	lower := strings.ToLower(alias)
	if lower == strings.ToLower(e.CanonicalName) {
		return false
	}
	for _, a := range e.Aliases {
		if strings.ToLower(a) == lower {
			return false
		}
	}
	e.Aliases = append(e.Aliases, alias)
	return true
}

// HasAlias reports whether alias is already present (case-insensitive).
func (e *Entity) HasAlias(alias string) bool {
	lower := strings.ToLower(alias)
	for _, a := range e.Aliases {
		if strings.ToLower(a) == lower {
			return true
		}
	}
	return false
}

// Relationship is a typed edge between two canonical entities. The
// (source, target) pair is stored ordered but treated as unordered for
// deduplication.
type Relationship struct {
	ID         int64
	SourceID   string
	TargetID   string
	Type       string
	Subtype    string
	DateStart  string
	DateEnd    string
	Weight     float64
	Confidence float64
	Documents  []string
	Notes      string
}

// PairKey returns the unordered (source, target, type) triple used for edge
// deduplication.
func (r *Relationship) PairKey() [3]string {
	a, b := r.SourceID, r.TargetID
	if b < a {
		a, b = b, a
	}
	return [3]string{a, b, r.Type}
}

// Touches reports whether the edge has id as either endpoint.
func (r *Relationship) Touches(id string) bool {
	return r.SourceID == id || r.TargetID == id
}

// Source is one provenance row: how one contributing source asserted a
// relationship, with that source's own type label and confidence.
type Source struct {
	ID             int64
	RelationshipID int64
	SourceSystem   string
	SourceRelID    string
	SourceRelType  string
	Evidence       map[string]interface{}
	Confidence     float64
	EvidenceClass  string
	AddedAt        time.Time
}

// MergeRecord is one append-only audit row for an absorb or a noise
// deletion performed by the merge engine.
type MergeRecord struct {
	ID                     int64
	SurvivorID             string
	AbsorbedID             string
	SurvivorName           string
	AbsorbedName           string
	Reason                 string
	MatchKey               string
	RelationshipsRepointed int
	LogsRepointed          int
	DuplicatesConsolidated int
	MergedAt               time.Time
}

// NoiseDeletedSurvivor is the survivor_id recorded when an entity is
// deleted as noise rather than absorbed into another entity.
const NoiseDeletedSurvivor = "NOISE_DELETED"

// Resolution is one entity_resolution_log row: the decision made for one
// raw name from one source system.
type Resolution struct {
	ID           int64
	SourceSystem string
	SourceID     string
	SourceName   string
	CanonicalID  string
	Method       string
	Confidence   float64
	Details      map[string]interface{}
	ResolvedBy   string
	ResolvedAt   time.Time
}
