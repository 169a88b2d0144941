package model

import "time"

// Doctor 医生表 — 对应 doctors（is_active=false 即软删除）
type Doctor struct {
	DoctorID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"doctor_id"`
	FirstName string `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName  string `gorm:"type:varchar(100);not null"                     json:"last_name"`
	Initials  string `gorm:"type:varchar(3);not null"                       json:"initials"`
	Email     string `gorm:"type:varchar(200)"                              json:"email,omitempty"`
	Type      string `gorm:"type:varchar(20);not null"                      json:"type"` // associé | remplaçant
	Color     string `gorm:"type:varchar(20)"                               json:"color,omitempty"`
	IsActive  bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Doctor) TableName() string { return "doctors" }

// Machine 设备表 — 对应 machines
type Machine struct {
	MachineID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"machine_id"`
	Name      string `gorm:"type:varchar(100);not null"                     json:"name"`
	Site      string `gorm:"type:varchar(100)"                              json:"site,omitempty"`
	Modality  string `gorm:"type:varchar(50)"                               json:"modality,omitempty"`
	IsActive  bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Machine) TableName() string { return "machines" }

// Conge 假期表 — 对应 conges（外部维护，引擎只读）
type Conge struct {
	CongeID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"conge_id"`
	DoctorID string    `gorm:"type:uuid;not null;index"                       json:"doctor_id"`
	Date     time.Time `gorm:"type:date;not null;index"                       json:"date"`
	IsConge  bool      `gorm:"not null;default:true"                          json:"is_conge"`

	Doctor *Doctor `gorm:"foreignKey:DoctorID;references:DoctorID" json:"doctor,omitempty"`
}

// TableName 指定表名
func (Conge) TableName() string { return "conges" }

// [自证通过] internal/model/directory.go
