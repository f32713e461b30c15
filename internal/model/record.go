package model

import "time"

// RunRecord 是落库的一次签到记录，用于历史查询和连签天数统计。
type RunRecord struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Kind      OutcomeKind `json:"kind"`
	Detail    string      `json:"detail,omitempty"`
	UID       string      `json:"uid,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

func RecordFromOutcome(o Outcome) RunRecord {
	at := o.At
	if at.IsZero() {
		at = time.Now()
	}
	return RunRecord{
		ID:        o.RunID,
		Username:  o.Username,
		Kind:      o.Kind,
		Detail:    o.Detail,
		UID:       o.UID,
		CreatedAt: at,
	}
}
