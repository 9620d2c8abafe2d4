// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MemoryFact is one durable fact in the rolling project memory.
type MemoryFact struct {
	// Text is the fact itself.
	Text string `json:"text" yaml:"text"`

	// Added is the date the fact was first recorded, YYYY-MM-DD.
	Added string `json:"added" yaml:"added"`
}

// MemorySession is one appended work-session entry.
type MemorySession struct {
	// Date is the session date, YYYY-MM-DD.
	Date string `json:"date" yaml:"date"`

	// Summary describes what happened in the session.
	Summary string `json:"summary" yaml:"summary"`
}

// ProjectMemory is the rolling memory file: facts are merged by normalized
// text, sessions are append-only.
type ProjectMemory struct {
	Facts    []MemoryFact    `json:"facts" yaml:"facts"`
	Sessions []MemorySession `json:"sessions" yaml:"sessions"`
}
