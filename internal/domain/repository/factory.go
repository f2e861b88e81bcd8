package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Users() UserRepository
	Ledger() LedgerStore
}
