package models

import (
	"fmt"
	"time"
)

// Tracking is one immutable audit row.
type Tracking struct {
	Base
	FKID   string    `gorm:"column:fk_id;type:uuid;index" json:"fk_id"`
	Model  string    `json:"model"`
	When   time.Time `gorm:"index" json:"when"`
	Who    string    `json:"who"`
	Which  string    `json:"which"`
	Links  string    `json:"links"`
	Action Action    `json:"action"`
	Data   string    `json:"data"`
}

func (Tracking) TableName() string { return "tracking" }

func (t *Tracking) String() string {
	return fmt.Sprintf("<Tracking %s %s %s>", t.Action, t.Model, t.FKID)
}

// Email records an outbound message. It is not audited.
type Email struct {
	Base
	FKID    *string   `gorm:"column:fk_id;type:uuid;index" json:"fk_id"`
	Model   string    `json:"model"`
	When    time.Time `json:"when"`
	Subject string    `json:"subject"`
	Dest    string    `json:"dest"`
	Body    string    `json:"body"`
}

func (Email) TableName() string { return "emails" }

func (e *Email) String() string {
	return fmt.Sprintf("<Email %s>", e.Subject)
}
