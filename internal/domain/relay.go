package domain

import "time"

// RelayStatus is the outcome of one relay attempt for one quote.
type RelayStatus string

const (
	RelayConfirmed   RelayStatus = "confirmed"
	RelayUnconfirmed RelayStatus = "unconfirmed"
	RelayFailed      RelayStatus = "failed"
)

// RelayRecord is the audit entry written for every submitted (or failed) on-chain update.
type RelayRecord struct {
	AssetID    string
	Source     Source
	Adapter    string
	Price      string
	ObservedAt int64
	TxHash     string
	Status     RelayStatus
	Error      string
	At         time.Time
}
