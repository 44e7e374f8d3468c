package homeward_test

import (
	"fmt"
	"log"

	"github.com/aretw0/homeward"
	"github.com/aretw0/homeward/pkg/domain"
)

// ExampleNew shows a return triggered 30 m above home: the vehicle first
// climbs to the return altitude.
func ExampleNew() {
	home := domain.HomePosition{Lat: 47.397742, Lon: 8.545594, Alt: 488}
	engine, err := homeward.New(home, homeward.WithParam("RTL_RETURN_ALT", 60))
	if err != nil {
		log.Fatal(err)
	}

	engine.Update(domain.GlobalPosition{Lat: 47.400440, Lon: 8.545594, Alt: 518}, false)
	if err := engine.SetMode(domain.ModeRTL); err != nil {
		log.Fatal(err)
	}

	triplet, updated := engine.Step()
	fmt.Println(engine.Phase(), updated)
	fmt.Printf("%.0f\n", triplet.Current.Alt)
	// Output:
	// CLIMB true
	// 548
}
