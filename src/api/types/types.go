package types

import "time"

// Communities. Identity is the on-chain group address; the row is the
// enumeration source of which groups this forum knows about. member_count
// and threads_count are cached counters, re-synced by the reconciler.
type Community struct {
	ID               uint64 `gorm:"primaryKey"`
	LensGroupAddress string `gorm:"size:64;uniqueIndex;not null"`
	Name             string `gorm:"size:128;not null"`
	Description      string `gorm:"type:text"`
	LogoURI          string `gorm:"size:256"`
	Owner            string `gorm:"size:64;not null"`
	MemberCount      int64  `gorm:"default:0"`
	ThreadsCount     int64  `gorm:"default:0"`
	Featured         bool   `gorm:"default:false;index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Threads          []Thread `gorm:"foreignKey:CommunityID"`
}

// Threads. One Lens feed per thread, gated to the parent community's group.
type Thread struct {
	ID              uint64 `gorm:"primaryKey"`
	CommunityID     uint64 `gorm:"index;not null"`
	LensFeedAddress string `gorm:"size:64;uniqueIndex;not null"`
	RootPostID      string `gorm:"size:128;not null"`
	Slug            string `gorm:"size:160;uniqueIndex;not null"`
	Title           string `gorm:"size:255;not null"`
	Author          string `gorm:"size:64;not null"`
	RepliesCount    int64  `gorm:"default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Community       Community `gorm:"foreignKey:CommunityID"`
	Replies         []Reply   `gorm:"foreignKey:ThreadID"`
}

// Replies. Identity is the Lens post id; rows exist for moderation
// bookkeeping (hidden flag) and counter reconciliation.
type Reply struct {
	ID         uint64 `gorm:"primaryKey"`
	ThreadID   uint64 `gorm:"index;not null"`
	LensPostID string `gorm:"size:128;uniqueIndex;not null"`
	ParentID   string `gorm:"size:128"`
	Author     string `gorm:"size:64;not null"`
	Hidden     bool   `gorm:"default:false"`
	CreatedAt  time.Time
	Thread     Thread `gorm:"foreignKey:ThreadID"`
}

// Settings, name/value rows read at boot and on demand.
type Setting struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value string `gorm:"size:256"`
}
