package main

import (
	"os"

	"github.com/aquasecurity/updateinfo-db/pkg"
	"github.com/aquasecurity/updateinfo-db/pkg/log"
)

var (
	version = "0.0.1"
)

func main() {
	ac := pkg.AppConfig{}

	app := ac.NewApp(version)
	if err := app.Run(os.Args); err != nil {
		log.Errorf("%+v", err)
		os.Exit(1)
	}
}
