package user

// User is a salesperson account. Accounts are managed elsewhere; this
// backend only reads them.
type User struct {
	ID       uint
	Username string
	Role     string
}
