package metadata

import "gorm.io/gorm"

// Metadata 存储系统级的键值对
type Metadata struct {
	gorm.Model

	Key string `gorm:"uniqueIndex;not null;type:varchar(255)"`

	Value string `gorm:"type:varchar(255)"`
}
