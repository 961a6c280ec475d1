// Package carriers wires the built-in carrier adapters into a registry.
package carriers

import (
	"github.com/tournevent/shipbridge/pkg/shipper"
	"github.com/tournevent/shipbridge/pkg/shipper/fedex"
	"github.com/tournevent/shipbridge/pkg/shipper/ups"
)

// factories is the registration table for supported carriers.
var factories = map[shipper.CarrierID]shipper.Factory{
	shipper.CarrierUPS:   ups.Factory,
	shipper.CarrierFedEx: fedex.Factory,
}

// NewDefaultRegistry returns a registry with every built-in carrier registered.
func NewDefaultRegistry(deps shipper.Deps) *shipper.Registry {
	r := shipper.NewRegistry(deps)
	for id, f := range factories {
		r.Register(id, f)
	}
	return r
}
