// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Project is the container for one snowball corpus: its configuration and
// iteration state. The engine advances CurrentIteration and sets IsComplete
// at the end of every iteration; it never deletes projects.
type Project struct {
	ID        string        `json:"id" yaml:"id"`
	Name      string        `json:"name" yaml:"name"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" yaml:"updated_at"`
	Config    ProjectConfig `json:"config" yaml:"config"`

	CurrentIteration int  `json:"current_iteration" yaml:"current_iteration"`
	IsComplete       bool `json:"is_complete" yaml:"is_complete"`
}
