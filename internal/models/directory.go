package models

import "time"

// Lookup records owned by the surrounding academic system. The committee
// engine only reads them to resolve candidate and examiner references.

type Candidate struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProgramID string    `gorm:"column:program_id;type:uuid;not null;index" json:"program_id"`
	FullName  string    `gorm:"column:full_name;type:varchar(255);not null" json:"full_name"`
	Email     string    `gorm:"column:email;type:varchar(255)" json:"email,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (Candidate) TableName() string { return "candidates" }

type FacultyMember struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProgramID string    `gorm:"column:program_id;type:uuid;not null;index" json:"program_id"`
	FullName  string    `gorm:"column:full_name;type:varchar(255);not null" json:"full_name"`
	Email     string    `gorm:"column:email;type:varchar(255)" json:"email,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (FacultyMember) TableName() string { return "faculty_members" }

type ExternalExaminer struct {
	ID          string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	FullName    string    `gorm:"column:full_name;type:varchar(255);not null" json:"full_name"`
	Institution string    `gorm:"column:institution;type:varchar(255)" json:"institution,omitempty"`
	Email       string    `gorm:"column:email;type:varchar(255)" json:"email,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (ExternalExaminer) TableName() string { return "external_examiners" }
