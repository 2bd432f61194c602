package main

import (
	"github.com/crustline/order-svc/internal/app"
	"github.com/crustline/order-svc/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
