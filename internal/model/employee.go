package model

import "strings"

// Employee is one row of the external employee directory. Employees live in
// memory only and are rebuilt from the directory sheet on every sync.
type Employee struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Nickname   string `json:"nickname,omitempty"`
	Department string `json:"department"`
	Position   string `json:"position"`
	Email      string `json:"email,omitempty"`
	Status     string `json:"status"`
}

// Resigned reports whether the directory marks the employee as having left.
func (e *Employee) Resigned() bool {
	return strings.Contains(strings.ToLower(e.Status), "resign")
}

// DisplayName returns the name with the nickname appended when known.
func (e *Employee) DisplayName() string {
	if e.Nickname == "" {
		return e.Name
	}
	return e.Name + " (" + e.Nickname + ")"
}
