package model

// ReservedKey 保留短键（如 api、admin），不允许被占用为自定义短键
type ReservedKey struct {
	BaseModel
	ShortKey string `gorm:"uniqueIndex;size:10;not null" json:"shortKey"`
}
