package customer

type Customer struct {
	ID      uint
	Name    string
	Phone   string
	Address string
}
