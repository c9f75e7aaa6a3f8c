package wizard

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/wolfman30/salon-booking-wizard/internal/catalog"
)

func intPtr(v int) *int { return &v }

func svc(id string, price float64, minutes *int) catalog.Service {
	return catalog.Service{ID: catalog.ID(id), Name: "Service " + id, Price: price, Duration: minutes}
}

func pro(id string, serviceIDs ...string) *catalog.Professional {
	p := &catalog.Professional{ID: catalog.ID(id), Name: "Pro " + id}
	for _, s := range serviceIDs {
		p.ServiceIDs = append(p.ServiceIDs, catalog.ID(s))
	}
	return p
}

func date(y int, m int, d int) *civil.Date {
	v := civil.Date{Year: y, Month: time.Month(m), Day: d}
	return &v
}

func mustApply(s State, actions ...Action) State {
	for _, a := range actions {
		next, err := Apply(s, a)
		if err != nil {
			panic(err)
		}
		s = next
	}
	return s
}
