package ledger

import "time"

// Reason 余额变动的原因
type Reason string

const (
	ReasonBountyEscrow Reason = "bounty_escrow"
	ReasonBountyRefund Reason = "bounty_refund"
	ReasonBondEscrow   Reason = "bond_escrow"
	ReasonBondReturn   Reason = "bond_return"
	ReasonReward       Reason = "reward"
)

// Ref 指向引起余额变动的业务记录
type Ref struct {
	Type string
	ID   uint
}

// Entry 只追加的余额流水，与余额变动在同一事务中写入
type Entry struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	UserID        uint   `gorm:"not null;index:idx_ledger_user_time"`
	Delta         int    `gorm:"not null"`
	BalanceBefore int    `gorm:"not null"`
	BalanceAfter  int    `gorm:"not null"`
	Reason        Reason `gorm:"type:varchar(32);not null;index"`
	RefType       string `gorm:"type:varchar(32)"`
	RefID         uint
	CreatedAt     time.Time `gorm:"autoCreateTime;index:idx_ledger_user_time"`
}

func (Entry) TableName() string {
	return "ledger_entries"
}
