// Command genhash prints the bcrypt hash stored for a password, for seeding
// accounts by hand.
//
//	go run ./cmd/genhash 'S3cret!pass'
package main

import (
	"fmt"
	"os"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/service"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: genhash <password>")
		os.Exit(2)
	}
	h, err := service.HashPassword(os.Args[1])
	if err != nil {
		panic(err)
	}
	fmt.Println(h)
}
