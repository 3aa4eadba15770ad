package dining

import (
	"bistro/internal/core/tx"
	"bistro/internal/domain"
)

// Services bundles the CRUD services of the dining reference data.
// Every delete is blocked while an active order references the record.
type Services struct {
	Tables  *domain.ReferenceService[*Table]
	Zones   *domain.ReferenceService[*Zone]
	Drivers *domain.ReferenceService[*Driver]
}

// NewServices wires the reference services.
func NewServices(tables TableRepository, zones ZoneRepository, drivers DriverRepository, txManager tx.Manager) *Services {
	return &Services{
		Tables: domain.NewReferenceService(domain.ReferenceServiceConfig[*Table]{
			Repo:       tables,
			TxManager:  txManager,
			EntityName: "table",
			UniqueKey:  "name and number",
		}),
		Zones: domain.NewReferenceService(domain.ReferenceServiceConfig[*Zone]{
			Repo:       zones,
			TxManager:  txManager,
			EntityName: "zone",
		}),
		Drivers: domain.NewReferenceService(domain.ReferenceServiceConfig[*Driver]{
			Repo:       drivers,
			TxManager:  txManager,
			EntityName: "driver",
		}),
	}
}
