package userdb

type Asset struct {
	Identifier string `gorm:"primaryKey"`
}

func (Asset) TableName() string { return "assets" }

type TimedBalance struct {
	Category string `gorm:"primaryKey;default:A"`
	Time     int64  `gorm:"primaryKey"`
	Currency string `gorm:"primaryKey;index:idx_timed_balances_currency"`
	Amount   string
	UsdValue string
}

func (TimedBalance) TableName() string { return "timed_balances" }
