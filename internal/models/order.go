package models

type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "OrderPlaced"
	OrderStatusPacking        OrderStatus = "Packing"
	OrderStatusShipped        OrderStatus = "Shipped"
	OrderStatusOutForDelivery OrderStatus = "Out for delivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusPacking,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s OrderStatus) Label() string {
	if s == OrderStatusPlaced {
		return "Order Placed"
	}
	return string(s)
}

type OrderItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Size     string `json:"size"`
}

type Address struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	Zipcode   string `json:"zipcode"`
	Phone     string `json:"phone"`
}

type Order struct {
	ID            string      `json:"_id"`
	Items         []OrderItem `json:"items"`
	Address       Address     `json:"address"`
	Amount        float64     `json:"amount"`
	PaymentMethod string      `json:"paymentMethod"`
	Payment       bool        `json:"payment"`
	Date          Timestamp   `json:"date"`
	Status        OrderStatus `json:"status"`
}

type UpdateStatusRequest struct {
	OrderID string      `json:"orderId"`
	Status  OrderStatus `json:"status"`
}
