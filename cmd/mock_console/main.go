package main

import (
	"log"

	"github.com/relabs-tech/cart_computer/internal/app"
	"github.com/relabs-tech/cart_computer/internal/config"
)

func main() {
	log.Println("starting cart-computer (mock console)")

	if err := config.InitGlobal("cart_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunMockConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
