package domain

type Tag struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// EntityKind names a type of entity that can carry tags.
type EntityKind string

const (
	EntityProduct    EntityKind = "product"
	EntityCollection EntityKind = "collection"
	EntityCustomer   EntityKind = "customer"
)
