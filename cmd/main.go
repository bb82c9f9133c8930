package main

import (
	"github.com/addismart/storefront/internal/app"
	"github.com/addismart/storefront/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
