package models

import "strings"

// Program is one of the closed set of degree programs offered by the faculty.
type Program string

const (
	ProgramComputer   Program = "Computer"
	ProgramComm       Program = "Comm"
	ProgramPower      Program = "Power"
	ProgramBiomedical Program = "Biomedical"
)

// ProgramAll is the admin convenience selector that fans a curriculum entry
// out to every program at the same level. It is never stored.
const ProgramAll Program = "All"

// AllPrograms lists every storable program.
var AllPrograms = []Program{ProgramComputer, ProgramComm, ProgramPower, ProgramBiomedical}

// CanonicalProgram normalises user-facing program names to the stored form.
// The UI historically used "Communications" where the store says "Comm"; this
// is the single place that mapping lives.
func CanonicalProgram(raw string) Program {
	trimmed := strings.TrimSpace(raw)
	if strings.EqualFold(trimmed, "Communications") {
		return ProgramComm
	}
	return Program(trimmed)
}

// Valid reports whether the program belongs to the closed set.
func (p Program) Valid() bool {
	switch p {
	case ProgramComputer, ProgramComm, ProgramPower, ProgramBiomedical:
		return true
	}
	return false
}

// DisplayName maps the stored short form back to the user-facing name.
func (p Program) DisplayName() string {
	if p == ProgramComm {
		return "Communications"
	}
	return string(p)
}
