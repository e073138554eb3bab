package catalog

import "time"

type Product struct {
	ID           int64
	SKU          string
	Name         string
	UnitPrice    float64
	ReorderPoint int
	Active       bool
	CreatedAt    time.Time
}

type Warehouse struct {
	ID        int64
	Name      string
	Active    bool
	CreatedAt time.Time
}
