package dining

import (
	"bistro/internal/domain"
)

// TableRepository defines persistence for tables. Name+number is the unique key.
type TableRepository interface {
	domain.ReferenceRepository[*Table]
}

// ZoneRepository defines persistence for delivery zones.
type ZoneRepository interface {
	domain.ReferenceRepository[*Zone]
}

// DriverRepository defines persistence for drivers.
type DriverRepository interface {
	domain.ReferenceRepository[*Driver]
}
