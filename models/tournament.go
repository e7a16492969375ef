package models

// TournamentStatus is only ever moved to completed by the progression engine.
type TournamentStatus string

const (
	TournamentScheduled TournamentStatus = "scheduled"
	TournamentCompleted TournamentStatus = "completed"
)

// Tournament owns all stages and matches transitively.
type Tournament struct {
	ID     int              `json:"id" db:"id"`
	Name   string           `json:"name" db:"name"`
	Status TournamentStatus `json:"status" db:"status"`

	Stages []Stage `json:"stages,omitempty" db:"-"`
}
