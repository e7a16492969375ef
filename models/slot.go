package models

const SlotSourceIntake = "intake"

// StageSlot is a placeholder position for a team inside a stage group.
// (StageID, GroupID, SlotID) is its natural key.
type StageSlot struct {
	StageID int    `json:"stage_id" db:"stage_id"`
	GroupID int    `json:"group_id" db:"group_id"`
	SlotID  int    `json:"slot_id" db:"slot_id"`
	TeamID  *int   `json:"team_id,omitempty" db:"team_id"`
	Source  string `json:"source" db:"source"`
}

// IntakeMapping routes the winner or loser of knockout match
// (FromStageID, Round, BracketPos) into slot (GroupIdx, SlotIdx) of TargetStageID.
type IntakeMapping struct {
	ID            int     `json:"id" db:"id"`
	TargetStageID int     `json:"target_stage_id" db:"target_stage_id"`
	GroupIdx      int     `json:"group_idx" db:"group_idx"`
	SlotIdx       int     `json:"slot_idx" db:"slot_idx"`
	FromStageID   int     `json:"from_stage_id" db:"from_stage_id"`
	Round         int     `json:"round" db:"round"`
	BracketPos    int     `json:"bracket_pos" db:"bracket_pos"`
	Outcome       Outcome `json:"outcome" db:"outcome"`
}
