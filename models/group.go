package models

// Group partitions the matches and standings of a groups stage.
type Group struct {
	ID       int    `json:"id" db:"id"`
	StageID  int    `json:"stage_id" db:"stage_id"`
	Name     string `json:"name" db:"name"`
	Ordering int    `json:"ordering" db:"ordering"`
}
